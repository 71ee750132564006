package log

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("DEBUG", "true")
	assert.Equal(t, logrus.DebugLevel, levelFromEnv())

	t.Setenv("DEBUG", "false")
	assert.Equal(t, logrus.InfoLevel, levelFromEnv())

	t.Setenv("DEBUG", "nope")
	assert.Equal(t, logrus.InfoLevel, levelFromEnv())
}

func TestDebugEnabled(t *testing.T) {
	for raw, want := range map[string]bool{
		"true": true, "TRUE": true, " True ": true,
		"1": false, "t": false, "yes": false, "false": false, "": false,
	} {
		t.Setenv("DEBUG", raw)
		assert.Equal(t, want, DebugEnabled(), "DEBUG=%q", raw)
	}
}

func TestFileWriter(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	assert.Nil(t, fileWriter())

	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_DIR", "")
	assert.Nil(t, fileWriter())

	t.Setenv("LOG_DIR", t.TempDir())
	assert.NotNil(t, fileWriter())
}

func TestErrorWithTraceID(t *testing.T) {
	logger, hook := test.NewNullLogger()

	id := ErrorWithTraceID(logger, Fields{RequestIDKey: "01HZX3J4K5"}, "boom")
	assert.Equal(t, "01HZX3J4K5", id)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "01HZX3J4K5", hook.LastEntry().Data["trace_id"])

	id = ErrorWithTraceID(logger, nil, "boom")
	require.NotEmpty(t, id)
	assert.NotEqual(t, "unknown", id)
	assert.Equal(t, id, hook.LastEntry().Data["trace_id"])

	id = ErrorWithTraceID(logger, Fields{RequestIDKey: "unknown"}, "boom")
	assert.Len(t, id, 36)
}

func TestWithRequestID(t *testing.T) {
	logger, _ := test.NewNullLogger()

	entry := WithRequestID(context.WithValue(context.Background(), RequestIDKey, "abc"), logger)
	assert.Equal(t, "abc", entry.Data[RequestIDKey])
	assert.Same(t, logger, entry.Logger)

	entry = WithRequestID(context.Background(), logger)
	assert.Equal(t, "unknown", entry.Data[RequestIDKey])
}
