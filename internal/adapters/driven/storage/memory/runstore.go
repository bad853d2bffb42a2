package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.BuildRun
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.BuildRun),
	}
}

// RecordRun stores or updates a run.
func (s *RunStore) RecordRun(_ context.Context, run *domain.BuildRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

// LastRun returns the most recently started run, or nil.
func (s *RunStore) LastRun(ctx context.Context) (*domain.BuildRun, error) {
	runs, _ := s.ListRuns(ctx, 1)
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.BuildRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(limit), nil
}

// PruneRuns keeps the most recent keep runs.
func (s *RunStore) PruneRuns(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make(map[string]domain.BuildRun, keep)
	for _, r := range s.sorted(keep) {
		kept[r.ID] = r
	}
	s.runs = kept
	return nil
}

// sorted returns runs by start time descending. Callers hold the lock.
func (s *RunStore) sorted(limit int) []domain.BuildRun {
	out := make([]domain.BuildRun, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
