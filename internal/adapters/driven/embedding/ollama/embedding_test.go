package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewEmbeddingService(Config{BaseURL: srv.URL, Model: "bge-m3", Dimensions: 2})
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.NoError(t, s.Close())
}

func TestEmbed_Normalises(t *testing.T) {
	var got embedRequest
	s := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{{3, 4}}})
	})

	v, err := s.Embed(context.Background(), "passage: береза")

	require.NoError(t, err)
	assert.Equal(t, "bge-m3", got.Model)
	assert.Equal(t, []string{"passage: береза"}, got.Input)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
}

func TestEmbedBatch_OneRequest(t *testing.T) {
	calls := 0
	s := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		rows := make([][]float64, len(req.Input))
		for i := range rows {
			rows[i] = []float64{0, float64(i + 1)}
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: rows})
	})

	got, err := s.EmbedBatch(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1, calls)
	assert.InDelta(t, 1.0, got[2][1], 1e-6)
}

func TestEmbedBatch_Empty(t *testing.T) {
	s := newServer(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})

	got, err := s.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbed_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		s := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		})
		_, err := s.Embed(context.Background(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
		assert.Contains(t, err.Error(), "model not found")
	})

	t.Run("row count", func(t *testing.T) {
		s := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"embeddings":[]}`))
		})
		_, err := s.Embed(context.Background(), "x")
		assert.Error(t, err)
	})

	t.Run("dimensions", func(t *testing.T) {
		s := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"embeddings":[[1,2,3]]}`))
		})
		_, err := s.Embed(context.Background(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "3 dimensions, want 2")
	})
}

func TestPing(t *testing.T) {
	ok := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, ok.Ping(context.Background()))

	down := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, down.Ping(context.Background()))
}

func TestEmbed_AnyDimensionsWhenUnset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0,0,5]]}`))
	}))
	defer srv.Close()
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "custom"})

	v, err := s.Embed(context.Background(), "x")

	require.NoError(t, err)
	assert.Len(t, v, 3)
	assert.InDelta(t, 1.0, v[2], 1e-6)
}
