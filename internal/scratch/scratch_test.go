package scratch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ReservesFile(t *testing.T) {
	dir := t.TempDir()

	f, err := New(dir, "page-*.png")
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(f.Path()))
	assert.True(t, strings.HasSuffix(f.Path(), ".png"))
	assert.FileExists(t, f.Path())

	require.NoError(t, f.Release())
	assert.NoFileExists(t, f.Path())
}

func TestRelease_Idempotent(t *testing.T) {
	f, err := New(t.TempDir(), "conv-*.pdf")
	require.NoError(t, err)

	require.NoError(t, f.Release())
	require.NoError(t, f.Release())
}

func TestRelease_AlreadyRemovedByTool(t *testing.T) {
	f, err := New(t.TempDir(), "conv-*.pdf")
	require.NoError(t, err)

	require.NoError(t, os.Remove(f.Path()))
	assert.NoError(t, f.Release())
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), "x-*")
	assert.Error(t, err)
}

func TestWith_Success(t *testing.T) {
	var seen string
	err := With(t.TempDir(), "conv-*.pdf", func(path string) error {
		seen = path
		return os.WriteFile(path, []byte("%PDF-1.4"), 0o600)
	})

	require.NoError(t, err)
	assert.NoFileExists(t, seen)
}

func TestWith_ErrorMidOperation(t *testing.T) {
	boom := errors.New("converter crashed")
	var seen string

	err := With(t.TempDir(), "conv-*.pdf", func(path string) error {
		seen = path
		require.NoError(t, os.WriteFile(path, []byte("partial"), 0o600))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoFileExists(t, seen)
}

func TestWith_PanicMidOperation(t *testing.T) {
	var seen string

	assert.PanicsWithValue(t, "render exploded", func() {
		_ = With(t.TempDir(), "page-*.png", func(path string) error {
			seen = path
			require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))
			panic("render exploded")
		})
	})

	require.NotEmpty(t, seen)
	assert.NoFileExists(t, seen)
}
