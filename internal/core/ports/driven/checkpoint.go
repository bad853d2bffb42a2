package driven

import (
	"context"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// CheckpointStore persists the corpus-level artifacts of a build so a
// later run can resume without re-reading documents.
type CheckpointStore interface {
	// Exists reports whether all three artifacts (passages, metadata,
	// entities) are present.
	Exists(ctx context.Context) (bool, error)

	// Save replaces the stored checkpoint.
	// Returns domain.ErrCheckpointMismatch if the parallel arrays disagree.
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Load reads the stored checkpoint.
	// Returns domain.ErrNotFound if no checkpoint exists and
	// domain.ErrCheckpointMismatch if the stored arrays disagree.
	Load(ctx context.Context) (*domain.Checkpoint, error)

	// Clear removes the stored checkpoint.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingStore persists the embedding matrix.
type EmbeddingStore interface {
	// Exists reports whether an embedding matrix is stored.
	Exists(ctx context.Context) (bool, error)

	// Save replaces the stored matrix.
	Save(ctx context.Context, m domain.Matrix) error

	// Load reads the stored matrix and checks it has expectedRows rows.
	// Returns domain.ErrNotFound if nothing is stored and
	// domain.ErrCheckpointMismatch on a row count mismatch.
	Load(ctx context.Context, expectedRows int) (domain.Matrix, error)

	// Clear removes the stored matrix.
	Clear(ctx context.Context) error

	// Path returns where the matrix is stored.
	Path() string
}
