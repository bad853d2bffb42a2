package domain

import "time"

// BuildRun records one execution of the build pipeline.
type BuildRun struct {
	// ID is the run identifier (UUID).
	ID string

	StartedAt time.Time
	EndedAt   time.Time

	// Success is false when the run stopped on an error.
	Success bool

	// Error is the failure message, empty on success.
	Error string

	Documents int
	Skipped   int
	Passages  int
	Entities  int

	// Resumed is true when passages came from a checkpoint.
	Resumed bool
}

// Duration returns the wall time of the run, zero while it is running.
func (r BuildRun) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
