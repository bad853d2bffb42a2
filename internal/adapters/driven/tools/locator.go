package tools

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// Ensure Locator implements the interface.
var _ driven.ToolLocator = (*Locator)(nil)

// Locator finds executables on PATH, then in a fixed list of
// platform-conventional install directories.
type Locator struct {
	searchDirs []string
	lookPath   func(string) (string, error)
	goos       string
}

// Option configures a Locator.
type Option func(*Locator)

// WithSearchDirs replaces the platform default install directories.
func WithSearchDirs(dirs ...string) Option {
	return func(l *Locator) {
		if len(dirs) > 0 {
			l.searchDirs = dirs
		}
	}
}

// WithLookPath replaces exec.LookPath. Used by tests to hide PATH.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(l *Locator) {
		l.lookPath = fn
	}
}

// NewLocator creates a locator with the defaults for the running platform.
func NewLocator(opts ...Option) *Locator {
	l := &Locator{
		searchDirs: DefaultSearchDirs(runtime.GOOS),
		lookPath:   exec.LookPath,
		goos:       runtime.GOOS,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultSearchDirs returns the install directories probed after PATH.
func DefaultSearchDirs(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Program Files\DjVuLibre`,
			`C:\Program Files (x86)\DjVuLibre`,
			`C:\DjVuLibre`,
			`C:\Program Files\Tesseract-OCR`,
			`C:\Program Files\poppler\bin`,
		}
	case "darwin":
		return []string{"/opt/homebrew/bin", "/usr/local/bin"}
	default:
		return []string{"/usr/bin", "/usr/local/bin", "/opt/local/bin"}
	}
}

// SearchDirs returns the directories probed after PATH.
func (l *Locator) SearchDirs() []string {
	return l.searchDirs
}

// Locate returns the first match for name. The binary is not executed.
func (l *Locator) Locate(name string) (string, error) {
	if p, err := l.lookPath(name); err == nil {
		return p, nil
	}

	candidates := []string{name}
	if l.goos == "windows" || filepath.Ext(name) == "" {
		candidates = append(candidates, name+".exe")
	}
	for _, dir := range l.searchDirs {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, nil
			}
		}
	}

	logger.Debug("tool %s not found on PATH or in %v", name, l.searchDirs)
	return "", fmt.Errorf("%s: %w", name, domain.ErrToolNotFound)
}
