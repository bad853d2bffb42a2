// Package sqlite provides a SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two store interfaces
// through a single database connection:
//
//   - CheckpointStore: Passage, passage metadata and entity list persistence
//   - RunStore: Build run history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored as checkpoint.db in the build output directory.
//
// # Consistency
//
// The artifacts table records the row count of every saved artifact.
// Load compares it with the stored rows and reports
// domain.ErrCheckpointMismatch on any disagreement.
package sqlite
