package driven

import (
	"context"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// Normaliser extracts text and metadata from a raw document.
// Each normaliser handles specific formats (e.g., FB2, PDF).
type Normaliser interface {
	// SupportedFormats returns the formats this normaliser handles.
	SupportedFormats() []domain.Format

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the document text.
	// Decode failures return domain.ErrDecode. Quality failures are not
	// errors: they are reported through NormaliseResult.Outcome.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Note: Normalisation only produces a Document with Content.
// Chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Document is the normalised document with Content field populated.
	Document domain.Document

	// Outcome classifies how extraction went.
	Outcome domain.Outcome
}
