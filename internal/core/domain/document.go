package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// MinTextLength is the minimum number of characters a document's text or a
// passage must carry to be kept.
const MinTextLength = 50

// Document represents a normalised document with metadata.
// It is the canonical representation after text extraction.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the source file path.
	URI string

	// Format is the detected document format.
	Format Format

	// Title is the human-readable title.
	Title string

	// Author is the author, empty when unknown.
	Author string

	// Language is a two-letter language code.
	Language string

	// Content is the full extracted text before chunking.
	Content string

	// Partial marks documents whose OCR stopped at the page limit
	// while pages still needed recognition.
	Partial bool

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was extracted.
	CreatedAt time.Time
}

// SourceName returns the file name the document was read from.
func (d *Document) SourceName() string {
	for i := len(d.URI) - 1; i >= 0; i-- {
		if d.URI[i] == '/' || d.URI[i] == '\\' {
			return d.URI[i+1:]
		}
	}
	return d.URI
}

// DefaultLanguage is the language assumed when a document declares none.
const DefaultLanguage = "ru"

// DefaultTitle returns the file name of uri without its extension.
func DefaultTitle(uri string) string {
	name := filepath.Base(strings.ReplaceAll(uri, "\\", "/"))
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// NewDocument returns a document for raw with default metadata and
// the given content.
func NewDocument(raw *RawDocument, content string) Document {
	return Document{
		URI:       raw.URI,
		Format:    raw.Format,
		Title:     DefaultTitle(raw.URI),
		Language:  DefaultLanguage,
		Content:   content,
		Metadata:  copyMetadata(raw.Metadata),
		CreatedAt: time.Now(),
	}
}

func copyMetadata(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Passage represents a searchable unit within a document.
// Passages are produced by the semantic chunker and are immutable.
type Passage struct {
	// ID is the unique identifier for the passage.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Text is the passage text.
	Text string

	// Position is the ordinal position within the document.
	Position int

	// Metadata describes where the passage came from.
	Metadata PassageMetadata
}

// PassageMetadata is the per-passage record persisted alongside the
// passage list. Entry i describes passage i.
type PassageMetadata struct {
	Source  string `json:"source"`
	Format  Format `json:"format"`
	Title   string `json:"title"`
	Author  string `json:"author,omitempty"`
	Length  int    `json:"length"`
	Partial bool   `json:"partial,omitempty"`
}

// NewPassageMetadata builds the metadata record for a passage of doc.
func NewPassageMetadata(doc *Document, text string) PassageMetadata {
	return PassageMetadata{
		Source:  doc.SourceName(),
		Format:  doc.Format,
		Title:   doc.Title,
		Author:  doc.Author,
		Length:  len([]rune(text)),
		Partial: doc.Partial,
	}
}
