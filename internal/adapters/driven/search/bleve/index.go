// Package bleve provides the optional keyword index over passages,
// backed by a bleve full-text index with the Russian analyzer.
package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/ru"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// DefaultDirName is the index directory name in the output directory.
const DefaultDirName = "keyword.bleve"

const batchSize = 500

// Ensure Index implements the interface.
var _ driven.KeywordIndex = (*Index)(nil)

// passageDoc is the indexed form of one passage.
type passageDoc struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Format string `json:"format"`
}

// Index is a bleve implementation of driven.KeywordIndex.
type Index struct {
	mu   sync.Mutex
	path string
	idx  bleve.Index
}

// New creates a keyword index stored at path. Nothing is opened until
// the index is built or searched.
func New(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty keyword index path", domain.ErrInvalidInput)
	}
	return &Index{path: path}, nil
}

// Path returns the index directory.
func (x *Index) Path() string {
	return x.path
}

func newMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = ru.AnalyzerName

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("text", text)
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("author", text)
	doc.AddFieldMappingsAt("source", exact)
	doc.AddFieldMappingsAt("format", exact)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = ru.AnalyzerName
	return im
}

// IndexPassages rebuilds the index from scratch. Document IDs are
// passage positions.
func (x *Index) IndexPassages(ctx context.Context, passages []string, metadata []domain.PassageMetadata) error {
	if len(passages) != len(metadata) {
		return fmt.Errorf("%w: %d passages, %d metadata records",
			domain.ErrCheckpointMismatch, len(passages), len(metadata))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.idx != nil {
		x.idx.Close()
		x.idx = nil
	}
	if err := os.RemoveAll(x.path); err != nil {
		return fmt.Errorf("remove old keyword index: %w", err)
	}

	idx, err := bleve.New(x.path, newMapping())
	if err != nil {
		return fmt.Errorf("create keyword index: %w", err)
	}

	batch := idx.NewBatch()
	for i, text := range passages {
		md := metadata[i]
		doc := passageDoc{
			Text:   text,
			Source: md.Source,
			Title:  md.Title,
			Author: md.Author,
			Format: md.Format.String(),
		}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			idx.Close()
			return fmt.Errorf("index passage %d: %w", i, err)
		}
		if batch.Size() >= batchSize {
			if err := ctx.Err(); err != nil {
				idx.Close()
				return err
			}
			if err := idx.Batch(batch); err != nil {
				idx.Close()
				return fmt.Errorf("flush keyword batch: %w", err)
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			idx.Close()
			return fmt.Errorf("flush keyword batch: %w", err)
		}
	}

	x.idx = idx
	logger.Debug("keyword index: %d passages at %s", len(passages), x.path)
	return nil
}

// open opens an existing index on first use. Caller must hold mu.
func (x *Index) open() error {
	if x.idx != nil {
		return nil
	}
	idx, err := bleve.Open(x.path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, x.path)
	}
	if err != nil {
		return fmt.Errorf("open keyword index: %w", err)
	}
	x.idx = idx
	return nil
}

// Search returns up to k passages matching query, best first.
func (x *Index) Search(ctx context.Context, query string, k int) ([]driven.KeywordHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.open(); err != nil {
		return nil, err
	}

	q := bleve.NewMatchQuery(query)
	q.SetField("text")
	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	res, err := x.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	hits := make([]driven.KeywordHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		pos, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		hits = append(hits, driven.KeywordHit{Position: pos, Score: h.Score})
	}
	return hits, nil
}

// Count returns the number of indexed passages.
func (x *Index) Count() (uint64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.open(); err != nil {
		return 0, err
	}
	return x.idx.DocCount()
}

// Close releases the index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.idx == nil {
		return nil
	}
	err := x.idx.Close()
	x.idx = nil
	return err
}
