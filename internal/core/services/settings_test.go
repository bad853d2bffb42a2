package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pronin-ni/rag-plants/internal/adapters/driven/storage/memory"
	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("ocr.enabled", false)
	_ = store.Set("ocr.page_limit", int64(40))
	_ = store.Set("ocr.render_scale", 2.5)
	_ = store.Set("ocr.languages", []any{"ru"})
	_ = store.Set("tools.convert_timeout", "10m")
	_ = store.Set("tools.render_timeout", int64(30))
	_ = store.Set("chunker.similarity_threshold", "0.75")
	_ = store.Set("index.backend", "faiss")
	_ = store.Set("embedding.provider", "openai")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.False(t, settings.OCR.Enabled)
	assert.Equal(t, 40, settings.OCR.PageLimit)
	assert.InDelta(t, 2.5, settings.OCR.RenderScale, 1e-9)
	assert.Equal(t, 250, settings.OCR.DPI())
	assert.Equal(t, []string{"ru"}, settings.OCR.Languages)
	assert.Equal(t, 10*time.Minute, settings.Tools.ConvertTimeout)
	assert.Equal(t, 30*time.Second, settings.Tools.RenderTimeout)
	assert.InDelta(t, 0.75, settings.Chunker.SimilarityThreshold, 1e-9)
	assert.Equal(t, domain.IndexBackendFaiss, settings.Index.Backend)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
}

func TestSettingsService_Get_WrongTypesKeepDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("ocr.enabled", int64(1))
	_ = store.Set("ocr.page_limit", "many")
	_ = store.Set("embedding.provider", "anthropic")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.OCR.Enabled, settings.OCR.Enabled)
	assert.Equal(t, defaults.OCR.PageLimit, settings.OCR.PageLimit)
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
}

func TestSettingsService_Get_EnvOverrides(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("ocr.enabled", true)
	t.Setenv("RAGPLANTS_OCR_ENABLED", "false")
	t.Setenv("RAGPLANTS_OCR_LANGUAGES", "ru, en ,de")
	t.Setenv("RAGPLANTS_KEYWORD_INDEX_ENABLED", "1")
	t.Setenv("RAGPLANTS_TOOLS_EXTRACT_TIMEOUT", "45s")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.False(t, settings.OCR.Enabled)
	assert.Equal(t, []string{"ru", "en", "de"}, settings.OCR.Languages)
	assert.True(t, settings.KeywordIndex.Enabled)
	assert.Equal(t, 45*time.Second, settings.Tools.ExtractTimeout)
}

func TestSettingsService_Get_MalformedEnv(t *testing.T) {
	t.Setenv("RAGPLANTS_INDEX_NPROBE", "lots")

	_, err := NewSettingsService(memory.NewConfigStore()).Get()

	assert.ErrorContains(t, err, "RAGPLANTS_INDEX_NPROBE")
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "RAGPLANTS_OCR_ENABLED", EnvName("ocr.enabled"))
	assert.Equal(t, "RAGPLANTS_KEYWORD_INDEX_ENABLED", EnvName("keyword_index.enabled"))
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := domain.DefaultAppSettings()
	settings.OCR.PageLimit = 12
	settings.OCR.Languages = []string{"en"}
	settings.Tools.SearchDirs = []string{"/opt/djvu/bin"}
	settings.Tools.RenderTimeout = 2 * time.Minute
	settings.Index.Backend = domain.IndexBackendFaiss
	settings.Checkpoint.Backend = domain.CheckpointBackendJSON
	settings.Output.Dir = "/data/plants"

	require.NoError(t, service.Save(&settings))

	_, hasKey := store.Get("embedding.api_key")
	assert.False(t, hasKey, "empty API key is not written")
	assert.Equal(t, "2m0s", store.GetString("tools.render_timeout"))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		check   func(t *testing.T, s *domain.AppSettings)
		wantErr error
	}{
		{
			name:  "integer",
			key:   "ocr.page_limit",
			value: "25",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, 25, s.OCR.PageLimit) },
		},
		{
			name:  "float",
			key:   "chunker.similarity_threshold",
			value: "0.9",
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.InDelta(t, 0.9, s.Chunker.SimilarityThreshold, 1e-9)
			},
		},
		{
			name:  "list",
			key:   "tools.search_dirs",
			value: `C:\DjVuLibre,C:\poppler\bin`,
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.Equal(t, []string{`C:\DjVuLibre`, `C:\poppler\bin`}, s.Tools.SearchDirs)
			},
		},
		{
			name:  "duration",
			key:   "tools.convert_timeout",
			value: "5m",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, 5*time.Minute, s.Tools.ConvertTimeout) },
		},
		{
			name:  "enum",
			key:   "checkpoint.backend",
			value: "json",
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.Equal(t, domain.CheckpointBackendJSON, s.Checkpoint.Backend)
			},
		},
		{name: "unknown key", key: "search.mode", value: "hybrid", wantErr: domain.ErrInvalidInput},
		{name: "unparsable", key: "ocr.enabled", value: "maybe", wantErr: domain.ErrInvalidInput},
		{name: "threshold above one", key: "chunker.similarity_threshold", value: "1.5", wantErr: domain.ErrInvalidInput},
		{name: "confidence negative", key: "ocr.min_confidence", value: "-0.1", wantErr: domain.ErrInvalidInput},
		{name: "unknown backend", key: "index.backend", value: "hnsw", wantErr: domain.ErrInvalidInput},
		{name: "zero nprobe", key: "index.nprobe", value: "0", wantErr: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore())

			err := service.Set(tt.key, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			settings, err := service.Get()
			require.NoError(t, err)
			tt.check(t, settings)
		})
	}
}

func TestSettingsService_Keys(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	keys := service.Keys()

	assert.Contains(t, keys, "ocr.min_confidence")
	assert.Contains(t, keys, "index.flat_threshold")
	assert.Equal(t, "pipeline.force_recompute", keys[0])

	settings := domain.DefaultAppSettings()
	fields := settingFields(&settings)
	assert.Len(t, fields, len(keys))
	for _, key := range keys {
		_, ok := fields[key]
		assert.True(t, ok, key)
	}

	keys[0] = "mutated"
	assert.Equal(t, "pipeline.force_recompute", service.Keys()[0])
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("ollama default model", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore())

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "bge-m3", settings.Embedding.Model)
		assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	})

	t.Run("openai clears base url", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore())

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-test"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
		assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
		assert.Empty(t, settings.Embedding.BaseURL)
		assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	})

	t.Run("requires api key", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore())
		assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
	})

	t.Run("invalid provider", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore())
		assert.Error(t, service.SetEmbeddingProvider("anthropic", "", "key"))
	})
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, NewSettingsService(memory.NewConfigStore()).Validate())
	})

	t.Run("openai without key", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("embedding.provider", "openai")

		err := NewSettingsService(store).Validate()
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("collects every range error", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("ocr.render_scale", 0.0)
		_ = store.Set("entities.min_occurrence", int64(0))

		err := NewSettingsService(store).Validate()
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.ErrorContains(t, err, "ocr.render_scale")
		assert.ErrorContains(t, err, "entities.min_occurrence")
	})
}

func TestSettingsService_GetPipelineConfig(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("chunker.similarity_threshold", 0.7)
	_ = store.Set("embedding.batch_size", int64(16))
	service := NewSettingsService(store)

	cfg := service.GetPipelineConfig()

	assert.Equal(t, []string{"semantic_chunker", "minlength"}, cfg.Processors)
	assert.Equal(t, 0.7, cfg.GetProcessorConfig("semantic_chunker")["threshold"])
	assert.Equal(t, 16, cfg.GetProcessorConfig("semantic_chunker")["batch_size"])
	assert.Equal(t, domain.MinTextLength, cfg.GetProcessorConfig("minlength")["min_length"])

	_ = store.Set("pipeline.processors", []string{"semantic_chunker"})
	assert.Equal(t, []string{"semantic_chunker"}, service.GetPipelineConfig().Processors)
}

func TestSettingsService_SaveError(t *testing.T) {
	service := NewSettingsService(&failingConfigStore{ConfigStore: memory.NewConfigStore()})
	settings := domain.DefaultAppSettings()

	err := service.Save(&settings)
	assert.ErrorContains(t, err, "save pipeline.force_recompute")
}

type failingConfigStore struct {
	*memory.ConfigStore
}

func (f *failingConfigStore) Set(string, any) error {
	return errors.New("disk full")
}

func TestFormatValue(t *testing.T) {
	settings := domain.DefaultAppSettings()

	v, ok := FormatValue(&settings, "ocr.languages")
	assert.True(t, ok)
	assert.Equal(t, "ru,en", v)

	v, _ = FormatValue(&settings, "tools.extract_timeout")
	assert.Equal(t, "2m0s", v)

	_, ok = FormatValue(&settings, "nope")
	assert.False(t, ok)
}

func TestSettingsService_Values(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("ocr.page_limit", int64(40))
	service := NewSettingsService(store)

	values, err := service.Values()

	require.NoError(t, err)
	require.Len(t, values, len(service.Keys()))
	for i, key := range service.Keys() {
		assert.Equal(t, key, values[i].Key)
	}

	byKey := make(map[string]string)
	for _, v := range values {
		byKey[v.Key] = v.Value
	}
	assert.Equal(t, "40", byKey["ocr.page_limit"])
	assert.Equal(t, "ru,en", byKey["ocr.languages"])
	assert.Equal(t, "RAGPLANTS_OCR_PAGE_LIMIT", values[indexOf(service.Keys(), "ocr.page_limit")].Env)
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
