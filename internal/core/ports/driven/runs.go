package driven

import (
	"context"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// RunStore keeps a history of build runs.
type RunStore interface {
	// RecordRun creates or updates a run by ID.
	RecordRun(ctx context.Context, run *domain.BuildRun) error

	// LastRun returns the most recently started run.
	// Returns nil and no error if no run was recorded.
	LastRun(ctx context.Context) (*domain.BuildRun, error)

	// ListRuns returns up to limit runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]domain.BuildRun, error)

	// PruneRuns keeps the most recent keep runs and removes the rest.
	PruneRuns(ctx context.Context, keep int) error
}
