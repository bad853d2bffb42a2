// Package filesystem discovers corpus documents in a local directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// ConnectorType identifies the filesystem connector.
const ConnectorType = "filesystem"

// ErrClosed is returned by operations on a closed connector.
var ErrClosed = errors.New("connector closed")

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector walks a directory tree for files of supported formats.
// Hidden files and directories are ignored.
type Connector struct {
	rootPath string

	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// New creates a connector rooted at rootPath.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return ConnectorType
}

// RootPath returns the input directory.
func (c *Connector) RootPath() string {
	return c.rootPath
}

// Validate checks the root exists and is a directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.checkRoot()
}

func (c *Connector) checkRoot() error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %w: %s is not a directory", domain.ErrInvalidInput, c.rootPath)
	}
	return nil
}

// FullSync emits every supported document in sorted path order.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.checkRoot(); err != nil {
			errs <- err
			return
		}

		found, err := c.walk(ctx)
		if err != nil {
			errs <- err
			return
		}

		for _, doc := range found {
			select {
			case docs <- doc:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return docs, errs
}

// walk collects supported files under the root.
func (c *Connector) walk(ctx context.Context) ([]domain.RawDocument, error) {
	var found []domain.RawDocument

	err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn("walk %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path != c.rootPath && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		doc, ok := c.rawDocument(path)
		if ok {
			found = append(found, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].URI < found[j].URI })
	return found, nil
}

// rawDocument describes a supported regular file.
func (c *Connector) rawDocument(path string) (domain.RawDocument, bool) {
	format, ok := domain.FormatFromPath(path)
	if !ok {
		return domain.RawDocument{}, false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return domain.RawDocument{}, false
	}

	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return domain.RawDocument{
		URI:    path,
		Format: format,
		Size:   info.Size(),
		Metadata: map[string]any{
			"relative_path": filepath.ToSlash(rel),
			"modified":      info.ModTime(),
		},
	}, true
}

// Watch emits changes to supported files until ctx is done. New
// subdirectories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if err := c.checkRoot(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}
	c.watchers = append(c.watchers, watcher)

	changes := make(chan domain.RawDocumentChange)
	go c.watchLoop(ctx, watcher, changes)
	return changes, nil
}

func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- domain.RawDocumentChange) {
	defer close(changes)
	defer c.removeWatcher(watcher)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) && !c.hiddenBelowRoot(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			change := c.handleFsEvent(event)
			if change == nil {
				continue
			}
			select {
			case changes <- *change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleFsEvent maps a filesystem event to a document change, or nil if
// the event does not concern a supported visible file.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	if c.hiddenBelowRoot(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		format, ok := domain.FormatFromPath(event.Name)
		if !ok {
			return nil
		}
		return &domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: domain.RawDocument{URI: event.Name, Format: format},
		}
	case event.Has(fsnotify.Create):
		doc, ok := c.rawDocument(event.Name)
		if !ok {
			return nil
		}
		return &domain.RawDocumentChange{Type: domain.ChangeCreated, Document: doc}
	case event.Has(fsnotify.Write):
		doc, ok := c.rawDocument(event.Name)
		if !ok {
			return nil
		}
		return &domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: doc}
	default:
		return nil
	}
}

func (c *Connector) hiddenBelowRoot(path string) bool {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return isHidden(path)
	}
	return isHidden(rel)
}

func (c *Connector) removeWatcher(w *fsnotify.Watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.watchers {
		if existing == w {
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			break
		}
	}
	w.Close()
}

// Close stops every watcher. It is idempotent.
func (c *Connector) Close() error {
	c.mu.Lock()
	watchers := c.watchers
	c.watchers = nil
	c.closed = true
	c.mu.Unlock()

	for _, w := range watchers {
		w.Close()
	}
	return nil
}

// addTree watches dir and its visible subdirectories.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
