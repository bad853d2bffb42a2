package index

import (
	"github.com/pronin-ni/rag-plants/cgo/faiss"
	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// NewBackend returns the builder for the configured backend. Faiss falls
// back to the native builder when the binary was built without it.
func NewBackend(backend domain.IndexBackend, opts ...Option) driven.IndexBuilder {
	if backend == domain.IndexBackendFaiss {
		if faiss.Available {
			return faiss.NewBuilder()
		}
		logger.Warn("faiss backend requested but not compiled in (build with -tags faiss); using native index")
	}
	return NewBuilder(opts...)
}
