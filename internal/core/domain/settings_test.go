package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDefaultAppSettings tests default configuration values
func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.True(t, s.OCR.Enabled)
	assert.Equal(t, []string{"ru", "en"}, s.OCR.Languages)
	assert.InDelta(t, 0.28, s.OCR.MinConfidence, 1e-9)
	assert.Equal(t, 500, s.OCR.PageLimit)
	assert.InDelta(t, 0.10, s.OCR.PDFMinTextRatio, 1e-9)
	assert.InDelta(t, 0.15, s.OCR.DjVuMinTextRatio, 1e-9)
	assert.Equal(t, 300, s.OCR.DPI())

	assert.Equal(t, 120*time.Second, s.Tools.ExtractTimeout)
	assert.Equal(t, 300*time.Second, s.Tools.ConvertTimeout)

	assert.InDelta(t, 0.80, s.Chunker.SimilarityThreshold, 1e-9)
	assert.Equal(t, 50, s.Chunker.MinPassageLength)
	assert.Equal(t, "passage: ", s.Chunker.PassagePrefix)

	assert.Equal(t, 3, s.Entities.MinOccurrence)
	assert.Equal(t, 64, s.Embedding.BatchSize)
	assert.Equal(t, IndexBackendNative, s.Index.Backend)
	assert.Equal(t, 5000, s.Index.FlatThreshold)
	assert.Equal(t, 32, s.Index.NProbe)
	assert.Equal(t, CheckpointBackendSQLite, s.Checkpoint.Backend)
	assert.False(t, s.Pipeline.ForceRecompute)
}

// TestOCRSettings_DPI tests render resolution rounding
func TestOCRSettings_DPI(t *testing.T) {
	assert.Equal(t, 100, OCRSettings{RenderScale: 1}.DPI())
	assert.Equal(t, 150, OCRSettings{RenderScale: 1.5}.DPI())
	assert.Equal(t, 0, OCRSettings{}.DPI())
}

// TestEmbeddingSettings_IsConfigured tests provider readiness
func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk-test"}, true},
		{"unknown provider", EmbeddingSettings{Provider: "cohere"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

// TestBackends_IsValid tests backend enums
func TestBackends_IsValid(t *testing.T) {
	assert.True(t, IndexBackendNative.IsValid())
	assert.True(t, IndexBackendFaiss.IsValid())
	assert.False(t, IndexBackend("hnsw").IsValid())
	assert.True(t, CheckpointBackendJSON.IsValid())
	assert.False(t, CheckpointBackend("redis").IsValid())
}

// TestPipelineConfigFromSettings tests processor chain derivation
func TestPipelineConfigFromSettings(t *testing.T) {
	cfg := PipelineConfigFromSettings(ChunkerSettings{
		SimilarityThreshold: 0.7,
		MinPassageLength:    80,
		PassagePrefix:       "query: ",
	})

	assert.Equal(t, []string{"semantic_chunker", "minlength"}, cfg.Processors)
	assert.Equal(t, 0.7, cfg.GetProcessorConfig("semantic_chunker")["threshold"])
	assert.Equal(t, "query: ", cfg.GetProcessorConfig("semantic_chunker")["prefix"])
	assert.Equal(t, 80, cfg.GetProcessorConfig("minlength")["min_length"])
	assert.Nil(t, cfg.GetProcessorConfig("missing"))

	var empty PipelineConfig
	assert.Nil(t, empty.GetProcessorConfig("minlength"))
}
