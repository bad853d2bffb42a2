package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driving"
	"github.com/pronin-ni/rag-plants/internal/index"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// Ensure InspectService implements the interface.
var _ driving.InspectService = (*InspectService)(nil)

// InspectService reads the artifacts a build left in the output directory.
// It shares its ports with the BuildService that wrote them.
type InspectService struct {
	deps      BuildDeps
	indexPath string
	prefix    string
}

// NewInspectService creates an inspect service over the artifacts of cfg.OutputDir.
func NewInspectService(deps BuildDeps, cfg BuildConfig) *InspectService {
	out := cfg.OutputDir
	if out == "" {
		out = "."
	}
	return &InspectService{
		deps:      deps,
		indexPath: filepath.Join(out, index.DefaultFileName),
		prefix:    cfg.PassagePrefix,
	}
}

// Inspect counts every artifact and checks their cardinalities agree.
// Missing or mismatched artifacts are reported as problems, not errors.
func (s *InspectService) Inspect(ctx context.Context) (*driving.InspectReport, error) {
	report := &driving.InspectReport{}
	problem := func(format string, args ...any) {
		report.Problems = append(report.Problems, fmt.Sprintf(format, args...))
	}

	if s.deps.Runs != nil {
		last, err := s.deps.Runs.LastRun(ctx)
		if err != nil {
			logger.Warn("inspect: last run: %v", err)
		}
		report.LastRun = last
	}

	cp, err := s.deps.Checkpoints.Load(ctx)
	switch {
	case err == nil:
		report.Passages = len(cp.Passages)
		report.Entities = len(cp.Entities)
	case errors.Is(err, domain.ErrNotFound):
		problem("no passage checkpoint")
	case errors.Is(err, domain.ErrCheckpointMismatch):
		problem("passage checkpoint: %v", err)
	default:
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	m, err := s.deps.Embeddings.Load(ctx, report.Passages)
	switch {
	case err == nil:
		report.EmbeddingRows = m.Rows
	case errors.Is(err, domain.ErrNotFound):
		problem("no embeddings at %s", s.deps.Embeddings.Path())
	default:
		problem("embeddings: %v", err)
	}

	idx, err := s.deps.Indexer.Load(s.indexPath)
	switch {
	case err == nil:
		report.IndexKind = idx.Kind()
		report.IndexSize = idx.Len()
		_ = idx.Close()
		if report.IndexSize != report.Passages {
			problem("index holds %d vectors for %d passages", report.IndexSize, report.Passages)
		}
	case errors.Is(err, domain.ErrNotFound):
		problem("no index at %s", s.indexPath)
	default:
		problem("index: %v", err)
	}

	if s.deps.Keyword != nil {
		count, err := s.deps.Keyword.Count()
		if err != nil {
			problem("keyword index: %v", err)
		} else {
			report.KeywordCount = count
			if count != uint64(report.Passages) {
				problem("keyword index holds %d passages for %d", count, report.Passages)
			}
		}
	}

	report.Consistent = len(report.Problems) == 0
	return report, nil
}

// Query embeds text with the passage prefix and returns the k nearest passages.
func (s *InspectService) Query(ctx context.Context, text string, k int) ([]driving.QueryHit, error) {
	text = strings.TrimSpace(text)
	if text == "" || k <= 0 {
		return nil, fmt.Errorf("%w: query needs text and k > 0", domain.ErrInvalidInput)
	}
	if s.deps.Embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	cp, err := s.deps.Checkpoints.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	idx, err := s.deps.Indexer.Load(s.indexPath)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	defer idx.Close()

	if idx.Len() != len(cp.Passages) {
		return nil, fmt.Errorf("%w: index holds %d vectors for %d passages",
			domain.ErrCheckpointMismatch, idx.Len(), len(cp.Passages))
	}

	vec, err := s.deps.Embedder.Embed(ctx, s.prefix+text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := idx.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	results := make([]driving.QueryHit, 0, len(hits))
	for _, h := range hits {
		results = append(results, queryHit(cp, h.Position, h.Similarity))
	}
	return results, nil
}

// KeywordQuery searches the keyword index.
func (s *InspectService) KeywordQuery(ctx context.Context, text string, k int) ([]driving.QueryHit, error) {
	if s.deps.Keyword == nil {
		return nil, fmt.Errorf("%w: keyword index disabled", domain.ErrNotFound)
	}
	text = strings.TrimSpace(text)
	if text == "" || k <= 0 {
		return nil, fmt.Errorf("%w: query needs text and k > 0", domain.ErrInvalidInput)
	}

	cp, err := s.deps.Checkpoints.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	hits, err := s.deps.Keyword.Search(ctx, text, k)
	if err != nil {
		return nil, fmt.Errorf("search keyword index: %w", err)
	}

	results := make([]driving.QueryHit, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(cp.Passages) {
			logger.Warn("keyword hit %d outside %d passages", h.Position, len(cp.Passages))
			continue
		}
		results = append(results, queryHit(cp, h.Position, h.Score))
	}
	return results, nil
}

func queryHit(cp *domain.Checkpoint, pos int, score float64) driving.QueryHit {
	return driving.QueryHit{
		Position:   pos,
		Similarity: score,
		Text:       cp.Passages[pos],
		Metadata:   cp.Metadata[pos],
	}
}
