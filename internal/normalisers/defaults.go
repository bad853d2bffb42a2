package normalisers

import (
	"github.com/pronin-ni/rag-plants/internal/cascade"
	"github.com/pronin-ni/rag-plants/internal/normalisers/djvu"
	"github.com/pronin-ni/rag-plants/internal/normalisers/docx"
	"github.com/pronin-ni/rag-plants/internal/normalisers/epub"
	"github.com/pronin-ni/rag-plants/internal/normalisers/fb2"
	"github.com/pronin-ni/rag-plants/internal/normalisers/pdf"
	"github.com/pronin-ni/rag-plants/internal/normalisers/plaintext"
)

// RegisterDefaults registers a normaliser for every supported format.
// Scanned formats share box and c.
func RegisterDefaults(r *Registry, box *cascade.Toolbox, c *cascade.Cascade) {
	r.Register(plaintext.New())
	r.Register(fb2.New())
	r.Register(epub.New())
	r.Register(docx.New())
	r.Register(pdf.New(box, c))
	r.Register(djvu.New(box, c))
}
