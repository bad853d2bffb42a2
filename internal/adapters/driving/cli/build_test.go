package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driving"
)

func TestBuildCmd_Use(t *testing.T) {
	assert.Equal(t, "build <input-dir>", buildCmd.Use)
}

func TestBuildCmd_RequiresInputDir(t *testing.T) {
	_, cleanup := setupTest()
	defer cleanup()

	_, err := run("build")

	assert.Error(t, err)
}

func TestBuildCmd_PrintsReport(t *testing.T) {
	env, cleanup := setupTest()
	defer cleanup()
	env.build.report = &driving.BuildReport{
		RunID:     "run-42",
		Documents: 3,
		Skipped:   []driving.SkipRecord{{Source: "scan.djvu", Reason: "no text"}},
		Partial:   []string{"atlas.pdf"},
		Passages:  120,
		Entities:  17,
		Plan:      domain.IndexPlan{Kind: domain.IndexFlat},
		IndexPath: "/out/plants.index",
		Duration:  1500 * time.Millisecond,
	}

	out, err := run("build", "/corpus", "--output", "/out")

	require.NoError(t, err)
	assert.Equal(t, "/corpus", env.build.opts.InputDir)
	assert.False(t, env.build.opts.Force)
	assert.Nil(t, env.build.opts.Progress)
	require.Len(t, env.opened, 1)
	assert.Equal(t, "/out", env.opened[0].OutputDir)
	assert.True(t, env.opened[0].Embeddings)
	assert.Equal(t, 1, env.closed)

	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "3 read, 1 skipped")
	assert.Contains(t, out, "120")
	assert.Contains(t, out, "Flat (exact inner product)")
	assert.Contains(t, out, "/out/plants.index")
	assert.Contains(t, out, "scan.djvu")
	assert.Contains(t, out, "no text")
	assert.Contains(t, out, "atlas.pdf")
}

func TestBuildCmd_ForceFlag(t *testing.T) {
	env, cleanup := setupTest()
	defer cleanup()

	_, err := run("build", "/corpus", "--force")

	require.NoError(t, err)
	assert.True(t, env.build.opts.Force)
}

func TestBuildCmd_ForceFromSettings(t *testing.T) {
	env, cleanup := setupTest()
	defer cleanup()
	env.settings.settings.Pipeline.ForceRecompute = true

	_, err := run("build", "/corpus")

	require.NoError(t, err)
	assert.True(t, env.build.opts.Force)
}

func TestBuildCmd_Failure(t *testing.T) {
	env, cleanup := setupTest()
	defer cleanup()
	env.build.err = domain.ErrCheckpointMismatch

	_, err := run("build", "/corpus")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCheckpointMismatch)
	assert.Contains(t, err.Error(), "build failed")
}

func TestBuildCmd_Locked(t *testing.T) {
	env, cleanup := setupTest()
	defer cleanup()
	env.build.err = domain.ErrIndexLocked

	_, err := run("build", "/corpus")

	assert.ErrorIs(t, err, domain.ErrIndexLocked)
	assert.Contains(t, err.Error(), "another build is running")
}

func TestBuildCmd_PipelineOpenError(t *testing.T) {
	env, cleanup := setupTest()
	defer cleanup()
	env.openErr = domain.ErrEmbeddingUnavailable

	_, err := run("build", "/corpus")

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestBuildCmd_Watch(t *testing.T) {
	env, cleanup := setupTest()
	defer cleanup()

	out, err := run("build", "/corpus", "--watch")

	require.NoError(t, err)
	assert.True(t, env.build.watched)
	assert.Contains(t, out, "Watching /corpus")
	assert.Contains(t, out, "run-1")
}

func TestBuildCmd_EmptyCorpusReport(t *testing.T) {
	_, cleanup := setupTest()
	defer cleanup()

	out, err := run("build", "/corpus")

	require.NoError(t, err)
	assert.Contains(t, out, "not built (no passages)")
}

func TestPrintProgress(t *testing.T) {
	buf := captureCmd(t)

	printProgress(buildCmd, driving.ProgressEvent{
		Index: 4, Source: "scan.djvu", Outcome: domain.Skip("no text"),
	})

	assert.Contains(t, buf.String(), "[4]")
	assert.Contains(t, buf.String(), "scan.djvu: 0 passages")
	assert.Contains(t, buf.String(), "skip")
}
