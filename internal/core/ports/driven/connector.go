package driven

import (
	"context"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// Connector discovers documents in an input location.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate checks the input location exists and is readable.
	Validate(ctx context.Context) error

	// FullSync emits every supported document.
	// Returns channels for documents and errors. Both are closed when done.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch listens for changes to supported documents until ctx is done.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}
