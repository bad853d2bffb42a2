// Package fb2 reads FictionBook 2 documents.
package fb2

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MinFragmentLength is the rune count a text block must exceed to be kept.
const MinFragmentLength = 10

// skipped elements contribute no text.
var skipped = map[string]bool{
	"stylesheet":  true,
	"title-info":  true,
	"coverpage":   true,
	"annotation":  true,
	"epigraph":    true,
	"binary":      true,
	"description": true,
}

// blocks are the elements whose text forms one fragment.
var blocks = map[string]bool{
	"p":           true,
	"v":           true,
	"subtitle":    true,
	"text-author": true,
	"td":          true,
}

// Normaliser handles FB2 documents.
type Normaliser struct{}

// New creates a new FB2 normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatFB2}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise parses the file at raw.URI.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	data, err := os.ReadFile(raw.URI)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", raw.URI, err)
	}

	b, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.URI, err)
	}

	doc := domain.NewDocument(raw, b.Text())
	doc.Format = domain.FormatFB2
	if b.Title != "" {
		doc.Title = b.Title
	}
	doc.Author = b.Author()
	if b.Lang != "" {
		doc.Language = b.Lang
	}

	outcome := domain.Success(fmt.Sprintf("%d fragments", len(b.Fragments)))
	if len(b.Fragments) == 0 {
		outcome = domain.Degraded("no paragraphs, used body text")
	}
	if strings.TrimSpace(doc.Content) == "" {
		outcome = domain.Skip("no body text")
	}
	return &driven.NormaliseResult{Document: doc, Outcome: outcome}, nil
}

// Book is the parsed content of an FB2 document.
type Book struct {
	Title     string
	FirstName string
	LastName  string
	Lang      string

	// Fragments are the body text blocks longer than MinFragmentLength.
	Fragments []string

	// BodyText is every body text node, used when there are no fragments.
	BodyText []string
}

// Author returns "first last", the last name alone, or "".
func (b *Book) Author() string {
	switch {
	case b.FirstName != "" && b.LastName != "":
		return b.FirstName + " " + b.LastName
	default:
		return b.LastName
	}
}

// Text returns fragments joined by blank lines, falling back to body text.
func (b *Book) Text() string {
	if len(b.Fragments) > 0 {
		return strings.Join(b.Fragments, "\n\n")
	}
	return strings.Join(b.BodyText, "\n\n")
}

// Parse reads an FB2 document. Declared legacy encodings are honoured.
func Parse(r io.Reader) (*Book, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	p := &parser{book: &Book{}, skipAt: -1, blockAt: -1}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			p.start(t.Name.Local)
		case xml.EndElement:
			p.end()
		case xml.CharData:
			p.text(string(t))
		}
	}

	if p.root != "FictionBook" {
		return nil, fmt.Errorf("%w: root element %q", domain.ErrDecode, p.root)
	}
	return p.book, nil
}

type parser struct {
	book  *Book
	root  string
	stack []string

	// skipAt and blockAt are stack depths, -1 when not inside one.
	skipAt  int
	blockAt int
	block   strings.Builder
	author  int
}

func (p *parser) start(name string) {
	if p.root == "" {
		p.root = name
	}
	p.stack = append(p.stack, name)
	depth := len(p.stack) - 1

	if name == "author" && p.inside("title-info") {
		p.author++
	}
	if p.skipAt < 0 && skipped[name] {
		p.skipAt = depth
	}
	if p.skipAt < 0 && p.blockAt < 0 && blocks[name] && p.inside("body") {
		p.blockAt = depth
		p.block.Reset()
	}
}

func (p *parser) end() {
	if len(p.stack) == 0 {
		return
	}
	depth := len(p.stack) - 1
	p.stack = p.stack[:depth]

	if depth == p.blockAt {
		p.blockAt = -1
		if text := strings.TrimSpace(p.block.String()); len([]rune(text)) > MinFragmentLength {
			p.book.Fragments = append(p.book.Fragments, text)
		}
	}
	if depth == p.skipAt {
		p.skipAt = -1
	}
}

func (p *parser) text(s string) {
	if len(p.stack) == 0 {
		return
	}
	if p.inside("title-info") {
		p.meta(s)
		return
	}
	if p.skipAt >= 0 || !p.inside("body") {
		return
	}
	if p.blockAt >= 0 {
		p.block.WriteString(s)
	}
	if t := strings.TrimSpace(s); t != "" {
		p.book.BodyText = append(p.book.BodyText, t)
	}
}

// meta records title-info fields. Only the first author is kept.
func (p *parser) meta(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	b := p.book
	switch p.stack[len(p.stack)-1] {
	case "book-title":
		if b.Title == "" {
			b.Title = s
		}
	case "first-name":
		if p.author == 1 && b.FirstName == "" {
			b.FirstName = s
		}
	case "last-name":
		if p.author == 1 && b.LastName == "" {
			b.LastName = s
		}
	case "lang":
		if b.Lang == "" {
			b.Lang = strings.ToLower(string([]rune(s)[:min(2, len([]rune(s)))]))
		}
	}
}

func (p *parser) inside(name string) bool {
	for _, n := range p.stack {
		if n == name {
			return true
		}
	}
	return false
}
