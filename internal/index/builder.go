package index

import (
	"context"
	"fmt"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Ensure Builder implements the interface.
var _ driven.IndexBuilder = (*Builder)(nil)

// BackendName identifies the native builder.
const BackendName = "native"

// Builder builds native flat and IVF indexes.
type Builder struct {
	train TrainOptions
}

// Option configures a Builder.
type Option func(*Builder)

// WithSeed sets the k-means seed.
func WithSeed(seed uint64) Option {
	return func(b *Builder) {
		b.train.Seed = seed
	}
}

// WithIterations sets the number of k-means iterations.
func WithIterations(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.train.Iterations = n
		}
	}
}

// NewBuilder creates a native index builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{train: TrainOptions{Iterations: DefaultIterations, Seed: DefaultSeed}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns BackendName.
func (b *Builder) Name() string { return BackendName }

// Build creates the index described by plan over every row of m.
func (b *Builder) Build(ctx context.Context, m domain.Matrix, plan domain.IndexPlan) (driven.VectorIndex, error) {
	switch plan.Kind {
	case domain.IndexFlat:
		return NewFlat(m)
	case domain.IndexIVF:
		return TrainIVF(ctx, m, plan.NList, plan.NProbe, b.train)
	default:
		return nil, fmt.Errorf("%w: index kind %q", domain.ErrInvalidInput, plan.Kind)
	}
}

// Load reads an index written by Save.
func (b *Builder) Load(path string) (driven.VectorIndex, error) {
	return Load(path)
}
