package driven

import (
	"context"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// OCREngine recognises text on a rendered page image.
// The engine is constructed once per process by the orchestrator and
// injected wherever pages are recognised.
type OCREngine interface {
	// Recognize returns the recognised text of the image.
	// Any failure yields an empty string: one bad page never aborts a build.
	Recognize(ctx context.Context, img domain.PageImage) string

	// Close releases the engine.
	Close() error
}
