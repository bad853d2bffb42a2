package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pronin-ni/rag-plants/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// DBName is the database file name inside the data directory.
const DBName = "checkpoint.db"

// Artifact names recorded in the artifacts table.
const (
	artifactPassages = "passages"
	artifactMetadata = "metadata"
	artifactEntities = "entities"
)

// Ensure Store implements the interface.
var _ driven.CheckpointStore = (*Store)(nil)

// Store is a SQLite-based checkpoint store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is required", domain.ErrInvalidInput)
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBName)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_checkpoint.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Checkpoint Store ====================

// Exists reports whether all three artifacts are recorded as complete.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM artifacts WHERE name IN (?, ?, ?)
	`, artifactPassages, artifactMetadata, artifactEntities).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying artifacts: %w", err)
	}
	return n == 3, nil
}

// Save replaces the stored checkpoint in a single transaction.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	if cp == nil {
		return domain.ErrInvalidInput
	}
	if err := cp.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"passages", "entities", "artifacts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO passages (position, text, source, format, title, author, length, partial)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, text := range cp.Passages {
		m := cp.Metadata[i]
		if _, err := stmt.ExecContext(ctx, i, text, m.Source, string(m.Format),
			m.Title, m.Author, m.Length, boolToInt(m.Partial)); err != nil {
			return fmt.Errorf("saving passage %d: %w", i, err)
		}
	}

	entStmt, err := tx.PrepareContext(ctx, "INSERT INTO entities (position, lemma) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer entStmt.Close()

	for i, lemma := range cp.Entities {
		if _, err := entStmt.ExecContext(ctx, i, lemma); err != nil {
			return fmt.Errorf("saving entity %q: %w", lemma, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	counts := map[string]int{
		artifactPassages: len(cp.Passages),
		artifactMetadata: len(cp.Metadata),
		artifactEntities: len(cp.Entities),
	}
	for name, n := range counts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO artifacts (name, row_count, completed_at) VALUES (?, ?, ?)
		`, name, n, now); err != nil {
			return fmt.Errorf("recording artifact %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load reads the stored checkpoint and checks it against the recorded counts.
func (s *Store) Load(ctx context.Context) (*domain.Checkpoint, error) {
	counts, err := s.artifactCounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(counts) < 3 {
		return nil, fmt.Errorf("checkpoint: %w", domain.ErrNotFound)
	}

	cp := &domain.Checkpoint{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT text, source, format, title, author, length, partial
		FROM passages ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var text, format string
		var m domain.PassageMetadata
		var partial int
		if err := rows.Scan(&text, &m.Source, &format, &m.Title, &m.Author, &m.Length, &partial); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		m.Format = domain.Format(format)
		m.Partial = partial == 1
		cp.Passages = append(cp.Passages, text)
		cp.Metadata = append(cp.Metadata, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passages: %w", err)
	}

	cp.Entities, err = s.loadEntities(ctx)
	if err != nil {
		return nil, err
	}

	if counts[artifactPassages] != len(cp.Passages) ||
		counts[artifactMetadata] != len(cp.Metadata) ||
		counts[artifactEntities] != len(cp.Entities) {
		return nil, fmt.Errorf("%w: recorded %d/%d/%d passages/metadata/entities, found %d/%d/%d",
			domain.ErrCheckpointMismatch,
			counts[artifactPassages], counts[artifactMetadata], counts[artifactEntities],
			len(cp.Passages), len(cp.Metadata), len(cp.Entities))
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return cp, nil
}

// Clear removes the stored checkpoint.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"artifacts", "passages", "entities"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Store) artifactCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, row_count FROM artifacts")
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		counts[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating artifacts: %w", err)
	}
	return counts, nil
}

func (s *Store) loadEntities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT lemma FROM entities ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var entities []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var lemma string
		if err := rows.Scan(&lemma); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		entities = append(entities, lemma)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return entities, nil
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
