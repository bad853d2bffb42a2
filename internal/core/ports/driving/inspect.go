package driving

import (
	"context"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// InspectService reports on built artifacts.
type InspectService interface {
	// Inspect counts artifacts and verifies they are mutually consistent.
	Inspect(ctx context.Context) (*InspectReport, error)

	// Query embeds text and returns the k nearest passages.
	Query(ctx context.Context, text string, k int) ([]QueryHit, error)

	// KeywordQuery returns up to k passages matching text in the keyword index.
	// Returns domain.ErrNotFound when no keyword index is configured.
	KeywordQuery(ctx context.Context, text string, k int) ([]QueryHit, error)
}

// InspectReport describes the artifacts in the output directory.
type InspectReport struct {
	Passages      int
	Entities      int
	EmbeddingRows int
	IndexKind     domain.IndexKind
	IndexSize     int
	KeywordCount  uint64
	Consistent    bool
	Problems      []string

	// LastRun is the most recent build, nil if none was recorded.
	LastRun *domain.BuildRun
}

// QueryHit is a passage returned by Query.
// Similarity is the inner product for vector hits and the relevance
// score for keyword hits.
type QueryHit struct {
	Position   int
	Similarity float64
	Text       string
	Metadata   domain.PassageMetadata
}
