package response

import (
	"errors"
	"fmt"
)

type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrapf formats a message that stands on its own while still matching kind
// through errors.Is and errors.As. A %w verb in format is kept in the chain.
func Wrapf(kind error, format string, args ...interface{}) error {
	return &wrapped{
		kind:  kind,
		cause: fmt.Errorf(format, args...),
	}
}

type wrapped struct {
	kind  error
	cause error
}

func (w *wrapped) Error() string {
	return w.cause.Error()
}

func (w *wrapped) Unwrap() []error {
	return []error{w.kind, w.cause}
}
