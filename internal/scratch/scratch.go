// Package scratch provides scoped temporary files for external tool output.
// A scratch file is created immediately before use and removed on every
// exit path of the operation that owns it, including errors and panics.
package scratch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/pronin-ni/rag-plants/internal/logger"
)

// File is a reserved temporary path. The file exists (empty) after New so
// the name cannot be taken by another process; tools overwrite it.
type File struct {
	path string
	once sync.Once
	err  error
}

// New reserves a temporary file in dir (os.TempDir() when empty).
// Pattern follows os.CreateTemp: a "*" is replaced by a random string.
func New(dir, pattern string) (*File, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("close scratch file: %w", err)
	}
	return &File{path: f.Name()}, nil
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Release removes the file. Safe to call more than once.
func (f *File) Release() error {
	f.once.Do(func() {
		err := os.Remove(f.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.err = fmt.Errorf("remove scratch file: %w", err)
			logger.Warn("scratch: %v", f.err)
		}
	})
	return f.err
}

// With reserves a temporary file, calls fn with its path, and removes the
// file however fn returns. A panic in fn is re-raised after cleanup.
func With(dir, pattern string, fn func(path string) error) (err error) {
	f, err := New(dir, pattern)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := f.Release(); relErr != nil && err == nil {
			err = relErr
		}
	}()
	return fn(f.Path())
}
