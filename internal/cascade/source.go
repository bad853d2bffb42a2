package cascade

import (
	"context"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// Source is a scanned document the cascade can read.
// Implementations invoke external tools with their own timeouts.
type Source interface {
	// Format returns the document format.
	Format() domain.Format

	// NativeText extracts the whole-document text layer.
	// Pages may be separated by form feeds.
	NativeText(ctx context.Context) (string, error)

	// PageCount returns the number of pages.
	PageCount(ctx context.Context) (int, error)

	// PageText extracts the text layer of a 1-based page.
	PageText(ctx context.Context, page int) (string, error)

	// RenderPage rasterises a 1-based page for recognition.
	RenderPage(ctx context.Context, page, dpi int) (domain.PageImage, error)
}

// Converter is a Source that can be converted to an intermediate PDF.
type Converter interface {
	// ConvertPDF writes a PDF rendition to dst and returns a Source
	// reading it. dst is owned by the caller.
	ConvertPDF(ctx context.Context, dst string) (Source, error)
}
