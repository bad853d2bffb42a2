// Package jsonfile stores build checkpoints as three JSON files in the
// output directory: chunks.json, metadata.json and species_list.json.
//
// Each file is written to a temporary sibling and renamed into place, so a
// crash mid-save never leaves a truncated artifact behind.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Artifact file names.
const (
	PassagesFile = "chunks.json"
	MetadataFile = "metadata.json"
	EntitiesFile = "species_list.json"
)

// Ensure Store implements the interface.
var _ driven.CheckpointStore = (*Store)(nil)

// Store is a JSON file implementation of driven.CheckpointStore.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty checkpoint directory", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether all three artifact files are present.
func (s *Store) Exists(_ context.Context) (bool, error) {
	for _, name := range []string{PassagesFile, MetadataFile, EntitiesFile} {
		_, err := os.Stat(s.path(name))
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// Save writes the three artifacts.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	if cp == nil {
		return domain.ErrInvalidInput
	}
	if err := cp.Validate(); err != nil {
		return err
	}

	passages := cp.Passages
	if passages == nil {
		passages = []string{}
	}
	metadata := cp.Metadata
	if metadata == nil {
		metadata = []domain.PassageMetadata{}
	}
	entities := cp.Entities
	if entities == nil {
		entities = []string{}
	}

	artifacts := []struct {
		name  string
		value any
	}{
		{PassagesFile, passages},
		{MetadataFile, metadata},
		{EntitiesFile, entities},
	}
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeJSON(s.path(a.name), a.value); err != nil {
			return fmt.Errorf("write %s: %w", a.name, err)
		}
	}
	return nil
}

// Load reads the three artifacts.
func (s *Store) Load(_ context.Context) (*domain.Checkpoint, error) {
	cp := &domain.Checkpoint{}
	if err := readJSON(s.path(PassagesFile), &cp.Passages); err != nil {
		return nil, err
	}
	if err := readJSON(s.path(MetadataFile), &cp.Metadata); err != nil {
		return nil, err
	}
	if err := readJSON(s.path(EntitiesFile), &cp.Entities); err != nil {
		return nil, err
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return cp, nil
}

// Clear removes the artifact files.
func (s *Store) Clear(_ context.Context) error {
	for _, name := range []string{PassagesFile, MetadataFile, EntitiesFile} {
		if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Close releases resources (no-op for file store).
func (s *Store) Close() error {
	return nil
}

// Dir returns the checkpoint directory.
func (s *Store) Dir() string {
	return s.dir
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrCheckpointMismatch, filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
