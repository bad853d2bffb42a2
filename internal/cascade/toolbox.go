package cascade

import (
	"context"
	"time"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Toolbox resolves and runs the external tools a Source shells out to.
type Toolbox struct {
	Locator driven.ToolLocator
	Runner  driven.CommandRunner

	// ExtractTimeout bounds text-layer and page count calls.
	ExtractTimeout time.Duration

	// ConvertTimeout bounds whole-document conversion.
	ConvertTimeout time.Duration

	// RenderTimeout bounds single-page rendering.
	RenderTimeout time.Duration

	// ScratchDir holds rendered pages; empty means os.TempDir().
	ScratchDir string
}

// NewToolbox creates a toolbox from tool settings.
func NewToolbox(locator driven.ToolLocator, runner driven.CommandRunner, s domain.ToolSettings) *Toolbox {
	return &Toolbox{
		Locator:        locator,
		Runner:         runner,
		ExtractTimeout: s.ExtractTimeout,
		ConvertTimeout: s.ConvertTimeout,
		RenderTimeout:  s.RenderTimeout,
	}
}

// Run locates tool and runs it under timeout. A missing tool returns
// domain.ErrToolNotFound without running anything.
func (t *Toolbox) Run(ctx context.Context, timeout time.Duration, tool string, args ...string) ([]byte, error) {
	path, err := t.Locator.Locate(tool)
	if err != nil {
		return nil, err
	}
	return t.Runner.Run(ctx, timeout, path, args...)
}
