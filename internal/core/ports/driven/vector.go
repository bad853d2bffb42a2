package driven

import (
	"context"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// IndexBuilder constructs similarity indexes from an embedding matrix.
type IndexBuilder interface {
	// Build trains (for IVF) and fills a new index with every row of m.
	Build(ctx context.Context, m domain.Matrix, plan domain.IndexPlan) (VectorIndex, error)

	// Load reads an index previously written with VectorIndex.Save.
	Load(path string) (VectorIndex, error)

	// Name identifies the backend.
	Name() string
}

// VectorIndex provides similarity search over passage embeddings.
// It is immutable after construction.
type VectorIndex interface {
	// Kind returns the index topology.
	Kind() domain.IndexKind

	// Len returns the number of indexed vectors.
	Len() int

	// Dim returns the vector dimension.
	Dim() int

	// Search finds the k most similar vectors to the query.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Save serialises the index to path.
	Save(path string) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Position is the matched passage's index in the passage list.
	Position int

	// Similarity is the inner product with the query.
	Similarity float64
}
