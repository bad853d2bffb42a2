// Package minlength provides a processor that drops short passages.
package minlength

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Name is the processor name used in pipeline configuration.
const Name = "minlength"

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor filters out passages shorter than a character floor.
type Processor struct {
	minLength int
}

// New creates a filter keeping passages of at least minLength characters.
// A non-positive minLength uses domain.MinTextLength.
func New(minLength int) *Processor {
	if minLength <= 0 {
		minLength = domain.MinTextLength
	}
	return &Processor{minLength: minLength}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// MinLength returns the character floor.
func (p *Processor) MinLength() int {
	return p.minLength
}

// Process returns the passages that meet the floor, renumbered in order.
func (p *Processor) Process(_ context.Context, _ *domain.Document, passages []domain.Passage) ([]domain.Passage, error) {
	kept := make([]domain.Passage, 0, len(passages))
	for _, ps := range passages {
		if utf8.RuneCountInString(strings.TrimSpace(ps.Text)) < p.minLength {
			continue
		}
		ps.Position = len(kept)
		kept = append(kept, ps)
	}
	return kept, nil
}
