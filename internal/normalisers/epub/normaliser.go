// Package epub reads EPUB e-books.
package epub

import (
	"archive/zip"
	"context"
	"fmt"
	"strings"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ChapterSeparator joins chapters.
const ChapterSeparator = "\n\n---\n\n"

// Normaliser handles EPUB documents.
type Normaliser struct{}

// New creates a new EPUB normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatEPUB}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise reads the archive at raw.URI.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	zr, err := zip.OpenReader(raw.URI)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDecode, raw.URI, err)
	}
	defer zr.Close()

	pkg, err := readPackage(&zr.Reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.URI, err)
	}

	var chapters []string
	for _, name := range pkg.documents() {
		if skipDocument(name) {
			continue
		}
		data, err := readFile(&zr.Reader, name)
		if err != nil {
			logger.Debug("epub: %s: %v", raw.URI, err)
			continue
		}
		chapters = append(chapters, Chapter(data)...)
	}

	doc := domain.NewDocument(raw, strings.Join(chapters, ChapterSeparator))
	doc.Format = domain.FormatEPUB
	if pkg.Title != "" {
		doc.Title = pkg.Title
	}
	doc.Author = pkg.Creator
	if pkg.Language != "" {
		doc.Language = pkg.Language
	}

	outcome := domain.Success(fmt.Sprintf("%d chapters", len(chapters)))
	if len(chapters) == 0 {
		outcome = domain.Skip("no chapter text")
	}
	return &driven.NormaliseResult{Document: doc, Outcome: outcome}, nil
}

// skipDocument reports whether a content document is navigation or styling.
func skipDocument(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range []string{"toc", "nav", "cover", "style", "opfs"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
