package driven

import (
	"context"
	"time"
)

// ToolLocator resolves external executables by name.
// Lookups are not cached and do not check the binary is runnable.
type ToolLocator interface {
	// Locate returns the path of the named tool.
	// Returns domain.ErrToolNotFound if no candidate exists.
	Locate(name string) (string, error)
}

// CommandRunner executes external commands.
// Abstracted for testing: the cascade tests substitute a scripted runner.
type CommandRunner interface {
	// Run executes the command and returns its standard output.
	// A run exceeding timeout is killed and returns domain.ErrToolTimeout.
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error)
}
