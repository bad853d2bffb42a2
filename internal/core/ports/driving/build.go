package driving

import (
	"context"
	"time"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// BuildService runs the document-to-index pipeline.
type BuildService interface {
	// Build processes the input directory into index artifacts.
	// Only domain.ErrCheckpointMismatch and infrastructure failures are
	// returned; per-document failures are recorded as skips.
	Build(ctx context.Context, opts BuildOptions) (*BuildReport, error)

	// Watch runs Build, then rebuilds after input changes until ctx is done.
	Watch(ctx context.Context, opts BuildOptions, onReport func(*BuildReport, error)) error
}

// BuildOptions configures a single build run.
type BuildOptions struct {
	// InputDir is the document directory.
	InputDir string

	// Force discards checkpoints and recomputes every artifact.
	Force bool

	// Progress, if set, is called after each document.
	Progress func(ProgressEvent)
}

// ProgressEvent reports per-document progress.
type ProgressEvent struct {
	Index    int
	Source   string
	Passages int
	Outcome  domain.Outcome
}

// BuildReport summarises a build.
type BuildReport struct {
	// RunID identifies the run in logs.
	RunID string

	// Documents is the number of documents read.
	Documents int

	// Skipped lists documents that contributed no passages.
	Skipped []SkipRecord

	// Partial lists documents whose OCR stopped at the page limit.
	Partial []string

	// Passages is the number of passages indexed.
	Passages int

	// Entities is the number of entities kept.
	Entities int

	// Plan is the index topology used.
	Plan domain.IndexPlan

	// Resumed is true when passages were reloaded from a checkpoint.
	Resumed bool

	// EmbeddingsResumed is true when embeddings were reloaded.
	EmbeddingsResumed bool

	// IndexPath is where the similarity index was written.
	IndexPath string

	// Duration is the wall time of the run.
	Duration time.Duration
}

// SkipRecord describes a document excluded from the passage list.
type SkipRecord struct {
	Source string
	Reason string
}
