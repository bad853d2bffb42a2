package driven

import (
	"context"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// KeywordIndex is an optional full-text index over the passage list.
type KeywordIndex interface {
	// IndexPassages indexes every passage with its metadata.
	// Document IDs are passage positions.
	IndexPassages(ctx context.Context, passages []string, metadata []domain.PassageMetadata) error

	// Search returns up to k passages matching the query.
	Search(ctx context.Context, query string, k int) ([]KeywordHit, error)

	// Count returns the number of indexed passages.
	Count() (uint64, error)

	// Close releases resources.
	Close() error
}

// KeywordHit represents a full-text search result.
type KeywordHit struct {
	Position int
	Score    float64
}
