package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// RecordRun creates or updates a run based on ID.
func (s *runStore) RecordRun(ctx context.Context, run *domain.BuildRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO build_runs (id, started_at, ended_at, success, error, documents, skipped, passages, entities, resumed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			success = excluded.success,
			error = excluded.error,
			documents = excluded.documents,
			skipped = excluded.skipped,
			passages = excluded.passages,
			entities = excluded.entities,
			resumed = excluded.resumed
	`, run.ID, formatTime(run.StartedAt), formatNullableTime(run.EndedAt),
		boolToInt(run.Success), nullString(run.Error),
		run.Documents, run.Skipped, run.Passages, run.Entities, boolToInt(run.Resumed))

	if err != nil {
		return fmt.Errorf("recording build run: %w", err)
	}
	return nil
}

// LastRun returns the most recently started run.
// Returns nil and no error if no run was recorded.
func (s *runStore) LastRun(ctx context.Context) (*domain.BuildRun, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListRuns returns recent runs ordered by start time descending.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.BuildRun, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, success, error, documents, skipped, passages, entities, resumed
		FROM build_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying build runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.BuildRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating build runs: %w", err)
	}

	return runs, nil
}

// PruneRuns removes old runs beyond the retention limit.
func (s *runStore) PruneRuns(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM build_runs
		WHERE id NOT IN (
			SELECT id FROM build_runs ORDER BY started_at DESC, rowid DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning build runs: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanRun scans a build run from *sql.Rows.
func scanRun(rows *sql.Rows) (*domain.BuildRun, error) {
	var run domain.BuildRun
	var startedAt string
	var endedAt, errMsg sql.NullString
	var success, resumed int

	if err := rows.Scan(&run.ID, &startedAt, &endedAt, &success, &errMsg,
		&run.Documents, &run.Skipped, &run.Passages, &run.Entities, &resumed); err != nil {
		return nil, fmt.Errorf("scanning build run: %w", err)
	}

	run.StartedAt = parseNullableTime(sql.NullString{String: startedAt, Valid: true})
	run.EndedAt = parseNullableTime(endedAt)
	run.Success = success == 1
	run.Resumed = resumed == 1
	if errMsg.Valid {
		run.Error = errMsg.String
	}

	return &run, nil
}

// timeLayout is RFC3339 with fixed-width nanoseconds, so stored times
// sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime formats a time in UTC using timeLayout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// formatNullableTime formats a time, or returns nil for zero time.
func formatNullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// parseNullableTime parses a nullable timeLayout string to time.Time.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{} // Return zero time on parse error
	}
	return t
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
