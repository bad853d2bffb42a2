package memory

import (
	"context"
	"sync"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is an in-memory implementation of driven.CheckpointStore.
type CheckpointStore struct {
	mu sync.RWMutex
	cp *domain.Checkpoint
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{}
}

// Exists reports whether a checkpoint is stored.
func (s *CheckpointStore) Exists(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cp != nil, nil
}

// Save replaces the stored checkpoint with a copy of cp.
func (s *CheckpointStore) Save(_ context.Context, cp *domain.Checkpoint) error {
	if cp == nil {
		return domain.ErrInvalidInput
	}
	if err := cp.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cp = copyCheckpoint(cp)
	return nil
}

// Load returns a copy of the stored checkpoint.
func (s *CheckpointStore) Load(_ context.Context) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cp == nil {
		return nil, domain.ErrNotFound
	}
	return copyCheckpoint(s.cp), nil
}

// Clear removes the stored checkpoint.
func (s *CheckpointStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cp = nil
	return nil
}

// Close releases resources (no-op for memory store).
func (s *CheckpointStore) Close() error {
	return nil
}

func copyCheckpoint(cp *domain.Checkpoint) *domain.Checkpoint {
	return &domain.Checkpoint{
		Passages: append([]string(nil), cp.Passages...),
		Metadata: append([]domain.PassageMetadata(nil), cp.Metadata...),
		Entities: append([]string(nil), cp.Entities...),
	}
}

// Ensure EmbeddingStore implements the interface.
var _ driven.EmbeddingStore = (*EmbeddingStore)(nil)

// EmbeddingStore is an in-memory implementation of driven.EmbeddingStore.
type EmbeddingStore struct {
	mu     sync.RWMutex
	matrix *domain.Matrix
}

// NewEmbeddingStore creates a new in-memory embedding store.
func NewEmbeddingStore() *EmbeddingStore {
	return &EmbeddingStore{}
}

// Exists reports whether a matrix is stored.
func (s *EmbeddingStore) Exists(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matrix != nil, nil
}

// Save replaces the stored matrix.
func (s *EmbeddingStore) Save(_ context.Context, m domain.Matrix) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Data = append([]float32(nil), m.Data...)
	s.matrix = &m
	return nil
}

// Load returns the stored matrix after checking its row count.
func (s *EmbeddingStore) Load(_ context.Context, expectedRows int) (domain.Matrix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.matrix == nil {
		return domain.Matrix{}, domain.ErrNotFound
	}
	if err := s.matrix.CheckRows(expectedRows); err != nil {
		return domain.Matrix{}, err
	}
	m := *s.matrix
	m.Data = append([]float32(nil), m.Data...)
	return m, nil
}

// Clear removes the stored matrix.
func (s *EmbeddingStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matrix = nil
	return nil
}

// Path returns the storage location.
func (s *EmbeddingStore) Path() string {
	return ":memory:"
}
