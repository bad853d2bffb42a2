package npy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// DefaultFileName is the embedding checkpoint name in the output directory.
const DefaultFileName = "embeddings.npy"

// Ensure Store implements the interface.
var _ driven.EmbeddingStore = (*Store)(nil)

// Store is a .npy implementation of driven.EmbeddingStore.
type Store struct {
	path string
}

// NewStore creates a store writing to path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty embeddings path", domain.ErrInvalidInput)
	}
	return &Store{path: path}, nil
}

// Exists reports whether the matrix file is present.
func (s *Store) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Save writes the matrix through a temporary file.
func (s *Store) Save(_ context.Context, m domain.Matrix) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".embeddings-*.npy")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, m); err != nil {
		tmp.Close()
		return fmt.Errorf("encode embeddings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return err
	}

	logger.Debug("saved %dx%d embedding matrix to %s", m.Rows, m.Dim, s.path)
	return nil
}

// Load reads the matrix and verifies its row count. A file that exists but
// does not decode is a consistency failure, like a row mismatch.
func (s *Store) Load(_ context.Context, expectedRows int) (domain.Matrix, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Matrix{}, fmt.Errorf("%w: %s", domain.ErrNotFound, s.path)
	}
	if err != nil {
		return domain.Matrix{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.Matrix{}, err
	}
	m, err := DecodeSize(f, info.Size())
	if err != nil {
		return domain.Matrix{}, fmt.Errorf("%w: %s: %w", domain.ErrCheckpointMismatch, s.path, err)
	}
	if err := m.CheckRows(expectedRows); err != nil {
		return domain.Matrix{}, err
	}
	return m, nil
}

// Clear removes the matrix file.
func (s *Store) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Path returns the matrix file path.
func (s *Store) Path() string {
	return s.path
}
