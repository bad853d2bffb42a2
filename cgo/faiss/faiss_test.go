//go:build faiss

package faiss

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

func TestBuilder_FlatRoundTrip(t *testing.T) {
	m, err := domain.NewMatrix([][]float32{{1, 0}, {0, 1}, {0.6, 0.8}})
	require.NoError(t, err)

	b := NewBuilder()
	idx, err := b.Build(context.Background(), m, domain.IndexPlan{Kind: domain.IndexFlat})
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 2, idx.Dim())

	hits, err := idx.Search(context.Background(), []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Position)
	assert.Equal(t, 2, hits[1].Position)

	path := filepath.Join(t.TempDir(), "plants.index")
	require.NoError(t, idx.Save(path))

	loaded, err := b.Load(path)
	require.NoError(t, err)
	defer loaded.Close()
	assert.Equal(t, domain.IndexFlat, loaded.Kind())
	assert.Equal(t, 3, loaded.Len())
}
