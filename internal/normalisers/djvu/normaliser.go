// Package djvu extracts text from DjVu documents through the OCR cascade.
package djvu

import (
	"context"

	"github.com/pronin-ni/rag-plants/internal/cascade"
	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DjVu documents.
type Normaliser struct {
	box     *cascade.Toolbox
	cascade *cascade.Cascade
}

// New creates a DjVu normaliser.
func New(box *cascade.Toolbox, c *cascade.Cascade) *Normaliser {
	return &Normaliser{box: box, cascade: c}
}

// SupportedFormats returns the formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatDjVu}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise runs the cascade over the file at raw.URI.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	res := n.cascade.Run(ctx, NewSource(raw.URI, n.box))
	for _, t := range res.Trace {
		logger.Debug("djvu: %s: %s", raw.URI, t)
	}

	doc := domain.NewDocument(raw, res.Text)
	doc.Format = domain.FormatDjVu
	doc.Partial = res.Partial
	doc.Metadata["pages"] = res.Pages.Total
	doc.Metadata["ocr_pages"] = res.Pages.Recognized

	return &driven.NormaliseResult{Document: doc, Outcome: res.Outcome}, nil
}
