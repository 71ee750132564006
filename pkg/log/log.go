package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

const RequestIDKey = "request_id"

const defaultLogDir = "./storage/logs"

type Fields = logrus.Fields

func NewLogger() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetLevel(levelFromEnv())

		logger.SetFormatter(&formatter.Formatter{
			NoColors:        false,
			TimestampFormat: "02 Jan 06 - 15:04:05",
			HideKeys:        false,
			CallerFirst:     true,
			CustomCallerFormatter: func(f *runtime.Frame) string {
				s := strings.Split(f.Function, ".")
				funcName := s[len(s)-1]
				return fmt.Sprintf(" \x1b[%dm[%s:%d][%s()]", 34, path.Base(f.File), f.Line, funcName)
			},
		})

		writers := []io.Writer{os.Stderr}
		if w := fileWriter(); w != nil {
			writers = append(writers, w)
		}

		logger.SetOutput(io.MultiWriter(writers...))
		logger.SetReportCaller(true)
	})

	return logger
}

// DebugEnabled reports whether DEBUG is "true", case-insensitively. It is the
// only place the variable is read.
func DebugEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("DEBUG")), "true")
}

func levelFromEnv() logrus.Level {
	if DebugEnabled() {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

// fileWriter returns nil when file logging is off: APP_ENV=test or LOG_DIR set to "".
func fileWriter() io.Writer {
	if os.Getenv("APP_ENV") == "test" {
		return nil
	}

	dir, ok := os.LookupEnv("LOG_DIR")
	if !ok {
		dir = defaultLogDir
	}
	if dir == "" {
		return nil
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, fmt.Sprintf("yolo-detection-%s.log", time.Now().Format("2006-01-02"))),
		LocalTime:  true,
		Compress:   true,
		MaxSize:    100,
		MaxAge:     7,
		MaxBackups: 3,
	}
}

func Warn(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	NewLogger().WithFields(fields).Warn(msg)
}

func traceID(requestID string) string {
	if requestID != "" && requestID != "unknown" {
		return requestID
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return "unknown"
	}
	return id.String()
}

// ErrorWithTraceID logs msg on logger (the shared logger when nil) and
// returns the trace id attached to it. The request id is reused when present.
func ErrorWithTraceID(logger logrus.FieldLogger, fields Fields, msg string) string {
	if logger == nil {
		logger = NewLogger()
	}
	if fields == nil {
		fields = Fields{}
	}

	reqID, _ := fields[RequestIDKey].(string)
	id := traceID(reqID)

	fields["trace_id"] = id
	logger.WithFields(fields).Error(msg)

	return id
}

// WithRequestID returns an entry on logger (the shared logger when nil)
// tagged with the request id carried by ctx.
func WithRequestID(ctx context.Context, logger logrus.FieldLogger) *logrus.Entry {
	if logger == nil {
		logger = NewLogger()
	}

	requestID := "unknown"
	if ctx != nil {
		if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
			requestID = id
		}
	}

	return logger.WithField(RequestIDKey, requestID)
}
