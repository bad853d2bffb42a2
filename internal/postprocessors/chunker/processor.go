// Package chunker provides the semantic text chunking processor.
//
// Text is split into sentences and every sentence is embedded. Adjacent
// sentences whose similarity reaches the threshold share a passage, so a
// passage boundary is always a sentence boundary and reading order is kept.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/sentences"
)

// Name is the processor name used in pipeline configuration.
const Name = "semantic_chunker"

// DefaultThreshold is the adjacent-sentence similarity needed to merge.
const DefaultThreshold = 0.80

// DefaultPrefix is prepended to every sentence sent for embedding.
const DefaultPrefix = "passage: "

// DefaultBatchSize is the number of sentences per embedding request.
const DefaultBatchSize = 64

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor splits document content into topic-coherent passages.
type Processor struct {
	embedder  driven.EmbeddingService
	splitter  driven.SentenceSplitter
	threshold float64
	prefix    string
	batchSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithThreshold sets the similarity at or above which adjacent sentences merge.
func WithThreshold(threshold float64) Option {
	return func(p *Processor) {
		if threshold > 0 && threshold <= 1 {
			p.threshold = threshold
		}
	}
}

// WithPrefix sets the embedding prompt prefix. An empty prefix is allowed.
func WithPrefix(prefix string) Option {
	return func(p *Processor) {
		p.prefix = prefix
	}
}

// WithBatchSize sets the number of sentences per embedding request.
func WithBatchSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.batchSize = size
		}
	}
}

// WithSplitter replaces the default sentence splitter.
func WithSplitter(s driven.SentenceSplitter) Option {
	return func(p *Processor) {
		if s != nil {
			p.splitter = s
		}
	}
}

// New creates a new chunker processor that embeds with embedder.
func New(embedder driven.EmbeddingService, opts ...Option) *Processor {
	p := &Processor{
		embedder:  embedder,
		splitter:  sentences.New(),
		threshold: DefaultThreshold,
		prefix:    DefaultPrefix,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process splits the document content into passages.
// Input passages are ignored; this processor creates new passages from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Passage) ([]domain.Passage, error) {
	if doc.Content == "" {
		return nil, nil
	}

	texts, err := p.Chunk(ctx, doc.Content)
	if err != nil {
		return nil, err
	}

	passages := make([]domain.Passage, 0, len(texts))
	for i, text := range texts {
		passages = append(passages, domain.Passage{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Text:       text,
			Position:   i,
			Metadata:   domain.NewPassageMetadata(doc, text),
		})
	}
	return passages, nil
}

// Chunk returns the passage texts of text in reading order.
// Fewer than two sentences are returned as they are, without embedding.
func (p *Processor) Chunk(ctx context.Context, text string) ([]string, error) {
	sents := p.splitter.Split(text)
	if len(sents) < 2 {
		return sents, nil
	}
	if p.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vectors, err := p.embed(ctx, sents)
	if err != nil {
		return nil, err
	}

	var chunks []string
	current := []string{sents[0]}
	for i := 1; i < len(sents); i++ {
		if domain.Dot(vectors[i-1], vectors[i]) >= p.threshold {
			current = append(current, sents[i])
			continue
		}
		chunks = append(chunks, strings.Join(current, " "))
		current = []string{sents[i]}
	}
	chunks = append(chunks, strings.Join(current, " "))
	return chunks, nil
}

// embed returns one unit vector per sentence, requested in batches.
func (p *Processor) embed(ctx context.Context, sents []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(sents))
	for start := 0; start < len(sents); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+p.batchSize, len(sents))

		batch := make([]string, 0, end-start)
		for _, s := range sents[start:end] {
			batch = append(batch, p.prefix+s)
		}

		got, err := p.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed sentences: %w", err)
		}
		if len(got) != len(batch) {
			return nil, fmt.Errorf("embed sentences: got %d vectors for %d sentences", len(got), len(batch))
		}
		for _, v := range got {
			vectors = append(vectors, domain.NormalizeL2(v))
		}
	}
	return vectors, nil
}
