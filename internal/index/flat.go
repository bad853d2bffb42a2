package index

import (
	"context"
	"fmt"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Ensure FlatIndex implements the interface.
var _ driven.VectorIndex = (*FlatIndex)(nil)

// FlatIndex is an exact inner product index over every vector.
type FlatIndex struct {
	m domain.Matrix
}

// NewFlat builds a flat index over the rows of m. The matrix is copied.
func NewFlat(m domain.Matrix) (*FlatIndex, error) {
	if err := checkMatrix(m); err != nil {
		return nil, err
	}
	m.Data = append([]float32(nil), m.Data...)
	return &FlatIndex{m: m}, nil
}

// Kind returns domain.IndexFlat.
func (f *FlatIndex) Kind() domain.IndexKind { return domain.IndexFlat }

// Len returns the number of indexed vectors.
func (f *FlatIndex) Len() int { return f.m.Rows }

// Dim returns the vector dimension.
func (f *FlatIndex) Dim() int { return f.m.Dim }

// Search scans every vector.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := checkQuery(query, f.m.Dim, k); err != nil {
		return nil, err
	}
	top := newTopK(k)
	for i := 0; i < f.m.Rows; i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		top.push(i, domain.Dot(query, f.m.Row(i)))
	}
	return top.results(), nil
}

// Save writes the index to path.
func (f *FlatIndex) Save(path string) error {
	return writeFile(path, f.m, nil)
}

// Close releases resources.
func (f *FlatIndex) Close() error { return nil }

func checkMatrix(m domain.Matrix) error {
	if m.Rows <= 0 || m.Dim <= 0 {
		return fmt.Errorf("%w: empty embedding matrix", domain.ErrInvalidInput)
	}
	if len(m.Data) != m.Rows*m.Dim {
		return fmt.Errorf("%w: %d values for %dx%d matrix", domain.ErrInvalidInput, len(m.Data), m.Rows, m.Dim)
	}
	return nil
}

func checkQuery(query []float32, dim, k int) error {
	if len(query) != dim {
		return fmt.Errorf("%w: query dimension %d, index dimension %d", domain.ErrInvalidInput, len(query), dim)
	}
	if k <= 0 {
		return fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}
	return nil
}
