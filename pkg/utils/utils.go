package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var ErrNotRegularFile = errors.New("not a regular file")

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
}

type utils struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func New() IUtils {
	return &utils{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t), u.entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// ValidateImagePath checks that path names an existing, readable regular file.
func ValidateImagePath(path string) error {
	if path == "" {
		return os.ErrNotExist
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
