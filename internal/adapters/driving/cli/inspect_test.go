package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driving"
)

func TestInspectCmd_Report(t *testing.T) {
	env, cleanup := setupTest()
	defer cleanup()
	env.inspect.report = &driving.InspectReport{
		Passages:      10,
		Entities:      4,
		EmbeddingRows: 10,
		IndexKind:     domain.IndexFlat,
		IndexSize:     10,
		KeywordCount:  10,
		Consistent:    true,
		LastRun: &domain.BuildRun{
			ID:        "run-1",
			StartedAt: time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC),
			Success:   true,
		},
	}

	out, err := run("inspect")

	require.NoError(t, err)
	require.Len(t, env.opened, 1)
	assert.False(t, env.opened[0].Embeddings)
	assert.Contains(t, out, "flat, 10 vectors")
	assert.Contains(t, out, "10 rows")
	assert.Contains(t, out, "2026-05-01 10:30:00")
	assert.Contains(t, out, "Artifacts are consistent.")
}

func TestInspectCmd_Problems(t *testing.T) {
	env, cleanup := setupTest()
	defer cleanup()
	env.inspect.report = &driving.InspectReport{
		Problems: []string{"no passage checkpoint", "no index at out/plants.index"},
	}

	out, err := run("inspect")

	require.NoError(t, err)
	assert.Contains(t, out, "Problems:")
	assert.Contains(t, out, "no passage checkpoint")
	assert.Contains(t, out, "no index at out/plants.index")
}

func TestInspectCmd_Query(t *testing.T) {
	env, cleanup := setupTest()
	defer cleanup()
	env.inspect.hits = []driving.QueryHit{{
		Position:   7,
		Similarity: 0.912,
		Text:       "Ромашка аптечная растёт на лугах",
		Metadata:   domain.PassageMetadata{Source: "herbs.fb2", Title: "Лекарственные травы"},
	}}

	out, err := run("inspect", "--query", "ромашка", "-k", "3")

	require.NoError(t, err)
	assert.True(t, env.opened[0].Embeddings)
	assert.Equal(t, "ромашка", env.inspect.query)
	assert.Equal(t, 3, env.inspect.k)
	assert.False(t, env.inspect.keyword)
	assert.Contains(t, out, "#7 0.912")
	assert.Contains(t, out, "herbs.fb2 (Лекарственные травы)")
	assert.Contains(t, out, "Ромашка аптечная растёт на лугах")
}

func TestInspectCmd_KeywordQuery(t *testing.T) {
	env, cleanup := setupTest()
	defer cleanup()

	out, err := run("inspect", "--query", "зверобой", "--keyword")

	require.NoError(t, err)
	assert.False(t, env.opened[0].Embeddings)
	assert.True(t, env.inspect.keyword)
	assert.Equal(t, 5, env.inspect.k)
	assert.Contains(t, out, "No passages found.")
}

func TestInspectCmd_QueryNotBuilt(t *testing.T) {
	env, cleanup := setupTest()
	defer cleanup()
	env.inspect.err = domain.ErrNotFound

	_, err := run("inspect", "-q", "ромашка")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "ragplants build")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Рома…", truncate("Ромашка", 4))
}
