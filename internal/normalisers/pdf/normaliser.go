// Package pdf extracts text from PDF documents through the OCR cascade.
package pdf

import (
	"context"
	"strings"

	"github.com/pronin-ni/rag-plants/internal/cascade"
	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct {
	box     *cascade.Toolbox
	cascade *cascade.Cascade
}

// New creates a PDF normaliser.
func New(box *cascade.Toolbox, c *cascade.Cascade) *Normaliser {
	return &Normaliser{box: box, cascade: c}
}

// SupportedFormats returns the formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatPDF}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise runs the cascade over the file at raw.URI.
// Extraction failures are reported through the outcome, never as errors.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	src := NewSource(raw.URI, n.box)
	res := n.cascade.Run(ctx, src)

	doc := domain.NewDocument(raw, res.Text)
	doc.Format = domain.FormatPDF
	doc.Partial = res.Partial
	doc.Metadata["pages"] = res.Pages.Total
	doc.Metadata["ocr_pages"] = res.Pages.Recognized
	applyInfo(ctx, src, &doc)

	logger.Debug("pdf: %s: %s (%d transitions)", doc.SourceName(), res.Outcome.Status, len(res.Trace))
	return &driven.NormaliseResult{Document: doc, Outcome: res.Outcome}, nil
}

// applyInfo copies title and author from the document information
// dictionary when it has them.
func applyInfo(ctx context.Context, src *Source, doc *domain.Document) {
	info, err := src.Info(ctx)
	if err != nil {
		return
	}
	if title := strings.TrimSpace(info["Title"]); title != "" {
		doc.Title = title
	}
	if author := strings.TrimSpace(info["Author"]); author != "" {
		doc.Author = author
	}
}
