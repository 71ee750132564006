package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULIDFromTimestamp(t *testing.T) {
	u := New()
	now := time.Now()

	a, err := u.NewULIDFromTimestamp(now)
	require.NoError(t, err)
	b, err := u.NewULIDFromTimestamp(now)
	require.NoError(t, err)

	assert.Len(t, a, ulid.EncodedSize)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestValidateImagePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bus.jpg")
	require.NoError(t, os.WriteFile(file, []byte("jpeg"), 0o600))

	assert.NoError(t, ValidateImagePath(file))

	err := ValidateImagePath(filepath.Join(dir, "missing.jpg"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	err = ValidateImagePath(dir)
	assert.ErrorIs(t, err, ErrNotRegularFile)

	assert.ErrorIs(t, ValidateImagePath(""), fs.ErrNotExist)
}
