// Package plaintext reads plain text documents in UTF-8 or a legacy
// single-byte encoding.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// fallbacks are tried in order when the file is not valid UTF-8.
var fallbacks = []struct {
	name string
	enc  encoding.Encoding
}{
	{"windows-1251", charmap.Windows1251},
	{"latin-1", charmap.ISO8859_1},
}

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatText}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise reads the file at raw.URI.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	data, err := os.ReadFile(raw.URI)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", raw.URI, err)
	}

	content, enc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.URI, err)
	}
	if enc != "utf-8" {
		logger.Debug("plaintext: %s decoded as %s", raw.URI, enc)
	}

	doc := domain.NewDocument(raw, content)
	doc.Format = domain.FormatText
	doc.Metadata["encoding"] = enc

	outcome := domain.Success(enc)
	if strings.TrimSpace(content) == "" {
		outcome = domain.Skip("empty file")
	}
	return &driven.NormaliseResult{Document: doc, Outcome: outcome}, nil
}

// Decode converts data to a string, returning the encoding used.
// UTF-8 (with or without BOM) is preferred; otherwise windows-1251 is
// used unless it leaves undefined bytes, then latin-1.
func Decode(data []byte) (string, string, error) {
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), "utf-8", nil
	}

	var lastErr error
	for _, fb := range fallbacks {
		out, err := fb.enc.NewDecoder().Bytes(data)
		if err != nil {
			lastErr = err
			continue
		}
		if bytes.ContainsRune(out, utf8.RuneError) {
			lastErr = fmt.Errorf("%s left undefined bytes", fb.name)
			continue
		}
		return string(out), fb.name, nil
	}
	return "", "", fmt.Errorf("%w: %v", domain.ErrDecode, lastErr)
}
