//go:build !faiss

package faiss

import (
	"context"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Available reports whether faiss support is compiled in.
const Available = false

// Ensure Builder implements the interface.
var _ driven.IndexBuilder = (*Builder)(nil)

// Builder creates faiss indexes.
// This is a stub for builds without the faiss tag.
type Builder struct{}

// NewBuilder creates a faiss index builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Name identifies the backend.
func (b *Builder) Name() string { return "faiss" }

// Build is not available without the faiss tag.
func (b *Builder) Build(_ context.Context, _ domain.Matrix, _ domain.IndexPlan) (driven.VectorIndex, error) {
	return nil, domain.ErrNotImplemented
}

// Load is not available without the faiss tag.
func (b *Builder) Load(_ string) (driven.VectorIndex, error) {
	return nil, domain.ErrNotImplemented
}
