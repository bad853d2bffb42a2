package chunker

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// pipeSplitter splits on "|" so tests control sentence boundaries.
type pipeSplitter struct{}

func (pipeSplitter) Split(text string) []string {
	var out []string
	for _, s := range strings.Split(text, "|") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// mockEmbedder returns fixed vectors keyed by input text.
type mockEmbedder struct {
	vectors map[string][]float32
	err     error
	short   bool
	batches [][]string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	got, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return got[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batches = append(m.batches, texts)
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, ok := m.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out = append(out, v)
	}
	if m.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 3 }
func (m *mockEmbedder) ModelName() string            { return "mock" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// unit returns a 2-D unit vector at the given angle from the x axis.
func unit(cos float64) []float32 {
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos)), 0}
}

func TestNew_Defaults(t *testing.T) {
	p := New(nil)

	assert.Equal(t, DefaultThreshold, p.threshold)
	assert.Equal(t, DefaultPrefix, p.prefix)
	assert.Equal(t, DefaultBatchSize, p.batchSize)
	assert.NotNil(t, p.splitter)
	assert.Equal(t, "semantic_chunker", p.Name())
}

func TestNew_Options(t *testing.T) {
	p := New(nil, WithThreshold(0.5), WithPrefix(""), WithBatchSize(8))
	assert.Equal(t, 0.5, p.threshold)
	assert.Empty(t, p.prefix)
	assert.Equal(t, 8, p.batchSize)

	ignored := New(nil, WithThreshold(0), WithThreshold(1.5), WithBatchSize(0), WithSplitter(nil))
	assert.Equal(t, DefaultThreshold, ignored.threshold)
	assert.Equal(t, DefaultBatchSize, ignored.batchSize)
	assert.NotNil(t, ignored.splitter)
}

func TestChunk_MergesBySimilarity(t *testing.T) {
	// sim(A,B) = 0.9, sim(B,C) = 0.3
	b := unit(0.9)
	c := []float32{
		float32(0.3*0.9 - math.Sqrt(1-0.09)*math.Sqrt(1-0.81)),
		float32(0.3*math.Sqrt(1-0.81) + math.Sqrt(1-0.09)*0.9),
		0,
	}
	emb := &mockEmbedder{vectors: map[string][]float32{
		"passage: A.": {1, 0, 0},
		"passage: B.": b,
		"passage: C.": c,
	}}
	require.InDelta(t, 0.3, domain.Dot(domain.NormalizeL2(b), domain.NormalizeL2(c)), 1e-4)

	p := New(emb, WithSplitter(pipeSplitter{}))
	got, err := p.Chunk(context.Background(), "A.|B.|C.")

	require.NoError(t, err)
	assert.Equal(t, []string{"A. B.", "C."}, got)
}

func TestChunk_ThresholdIsInclusive(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"A": {1, 0, 0},
		"B": {1, 0, 0},
	}}
	p := New(emb, WithSplitter(pipeSplitter{}), WithPrefix(""), WithThreshold(1))

	got, err := p.Chunk(context.Background(), "A|B")

	require.NoError(t, err)
	assert.Equal(t, []string{"A B"}, got)
}

func TestChunk_VectorsAreRenormalised(t *testing.T) {
	// Same direction, different magnitudes: cosine is 1.
	emb := &mockEmbedder{vectors: map[string][]float32{
		"A": {10, 0, 0},
		"B": {0.5, 0, 0},
	}}
	p := New(emb, WithSplitter(pipeSplitter{}), WithPrefix(""), WithThreshold(0.99))

	got, err := p.Chunk(context.Background(), "A|B")

	require.NoError(t, err)
	assert.Equal(t, []string{"A B"}, got)
}

func TestChunk_FewerThanTwoSentences(t *testing.T) {
	emb := &mockEmbedder{}
	p := New(emb, WithSplitter(pipeSplitter{}))

	got, err := p.Chunk(context.Background(), "Only one sentence here.")
	require.NoError(t, err)
	assert.Equal(t, []string{"Only one sentence here."}, got)

	got, err = p.Chunk(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Empty(t, emb.batches, "no embedding below two sentences")
}

func TestChunk_Idempotent(t *testing.T) {
	emb := &mockEmbedder{}
	p := New(emb)

	passage := "Береза повислая растет в смешанных лесах средней полосы России."
	got, err := p.Chunk(context.Background(), passage)

	require.NoError(t, err)
	assert.Equal(t, []string{passage}, got)
}

func TestChunk_Batches(t *testing.T) {
	emb := &mockEmbedder{}
	p := New(emb, WithSplitter(pipeSplitter{}), WithBatchSize(2))

	got, err := p.Chunk(context.Background(), "a|b|c|d|e")

	require.NoError(t, err)
	require.Len(t, emb.batches, 3)
	assert.Equal(t, []string{"passage: a", "passage: b"}, emb.batches[0])
	assert.Equal(t, []string{"passage: e"}, emb.batches[2])
	// Every sentence embeds to the same vector, so all merge.
	assert.Equal(t, []string{"a b c d e"}, got)
}

func TestChunk_Errors(t *testing.T) {
	t.Run("no embedder", func(t *testing.T) {
		p := New(nil, WithSplitter(pipeSplitter{}))
		_, err := p.Chunk(context.Background(), "a|b")
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("embedder failure", func(t *testing.T) {
		boom := errors.New("boom")
		p := New(&mockEmbedder{err: boom}, WithSplitter(pipeSplitter{}))
		_, err := p.Chunk(context.Background(), "a|b")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("vector count mismatch", func(t *testing.T) {
		p := New(&mockEmbedder{short: true}, WithSplitter(pipeSplitter{}))
		_, err := p.Chunk(context.Background(), "a|b")
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := New(&mockEmbedder{}, WithSplitter(pipeSplitter{}))
		_, err := p.Chunk(ctx, "a|b")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestProcess(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"passage: Сосна обыкновенная.": {1, 0, 0},
		"passage: Ель европейская.":    {0, 1, 0},
	}}
	p := New(emb, WithSplitter(pipeSplitter{}))
	doc := &domain.Document{
		ID:      "doc-1",
		URI:     "/data/trees.fb2",
		Format:  domain.FormatFB2,
		Title:   "Деревья",
		Author:  "Иванов",
		Content: "Сосна обыкновенная.|Ель европейская.",
	}

	passages, err := p.Process(context.Background(), doc, nil)

	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "Сосна обыкновенная.", passages[0].Text)
	assert.Equal(t, 0, passages[0].Position)
	assert.Equal(t, 1, passages[1].Position)
	assert.Equal(t, "doc-1", passages[1].DocumentID)
	assert.NotEqual(t, passages[0].ID, passages[1].ID)

	meta := passages[0].Metadata
	assert.Equal(t, "trees.fb2", meta.Source)
	assert.Equal(t, domain.FormatFB2, meta.Format)
	assert.Equal(t, "Деревья", meta.Title)
	assert.Equal(t, "Иванов", meta.Author)
	assert.Equal(t, len([]rune("Сосна обыкновенная.")), meta.Length)
}

func TestProcess_EmptyContent(t *testing.T) {
	p := New(&mockEmbedder{})
	passages, err := p.Process(context.Background(), &domain.Document{}, nil)

	require.NoError(t, err)
	assert.Empty(t, passages)
}
