// Package docx reads Office Open XML word-processor documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatDOCX}
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

	reader, err := zip.OpenReader(raw.URI)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDecode, raw.URI, err)
	}
	defer reader.Close()

	// Extract text content from document.xml
	content, err := extractDocumentText(&reader.Reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.URI, err)
	}

	doc := domain.NewDocument(raw, content)
	doc.Format = domain.FormatDOCX

	// Title and author from core.xml, filename otherwise
	if core, ok := readCore(&reader.Reader); ok {
		if core.Title != "" {
			doc.Title = core.Title
		}
		doc.Author = core.Creator
	}

	outcome := domain.Success("")
	if content == "" {
		outcome = domain.Skip("no paragraph text")
	}
	return &driven.NormaliseResult{Document: doc, Outcome: outcome}, nil
}

// extractDocumentText extracts text from word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	content, err := readEntry(reader, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return parseDocumentXML(content)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML joins the non-blank body paragraphs with blank lines.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("%w: document.xml: %v", domain.ErrDecode, err)
	}

	paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var text strings.Builder
		for _, r := range para.Runs {
			for _, t := range r.Text {
				text.WriteString(t.Content)
			}
		}
		if strings.TrimSpace(text.String()) != "" {
			paragraphs = append(paragraphs, text.String())
		}
	}

	return strings.Join(paragraphs, "\n\n"), nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
}

func readCore(reader *zip.Reader) (coreXML, bool) {
	var core coreXML
	content, err := readEntry(reader, "docProps/core.xml")
	if err != nil {
		return core, false
	}
	if err := xml.Unmarshal(content, &core); err != nil {
		return core, false
	}
	core.Title = strings.TrimSpace(core.Title)
	core.Creator = strings.TrimSpace(core.Creator)
	return core, true
}

func readEntry(reader *zip.Reader, name string) ([]byte, error) {
	rc, err := reader.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
