package tools

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestExecRunner_Output(t *testing.T) {
	requireShell(t)

	out, err := NewExecRunner().Run(context.Background(), time.Second, "sh", "-c", "printf 'Pages: 12'")
	require.NoError(t, err)
	assert.Equal(t, "Pages: 12", string(out))
}

func TestExecRunner_FailureIncludesStderr(t *testing.T) {
	requireShell(t)

	_, err := NewExecRunner().Run(context.Background(), time.Second, "sh", "-c", "echo 'corrupt file' >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sh failed")
	assert.Contains(t, err.Error(), "corrupt file")
	assert.NotErrorIs(t, err, domain.ErrToolTimeout)
}

func TestExecRunner_Timeout(t *testing.T) {
	requireShell(t)

	start := time.Now()
	_, err := NewExecRunner().Run(context.Background(), 100*time.Millisecond, "sleep", "10")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrToolTimeout)
	assert.Less(t, time.Since(start), 5*time.Second, "timed out process must be killed")
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := NewExecRunner().Run(context.Background(), time.Second, "ragplants-no-such-tool")
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
}

func TestExecRunner_Cancelled(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecRunner().Run(ctx, time.Second, "sleep", "10")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
