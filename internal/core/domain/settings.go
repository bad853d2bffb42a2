package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// IndexBackend selects the similarity index implementation.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendNative is the pure-Go flat/IVF index.
	IndexBackendNative IndexBackend = "native"

	// IndexBackendFaiss is the faiss library (requires the faiss build tag).
	IndexBackendFaiss IndexBackend = "faiss"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendNative || b == IndexBackendFaiss
}

// CheckpointBackend selects where corpus checkpoints are persisted.
type CheckpointBackend string

// Available checkpoint backends.
const (
	// CheckpointBackendSQLite stores checkpoints in a SQLite database.
	CheckpointBackendSQLite CheckpointBackend = "sqlite"

	// CheckpointBackendJSON stores checkpoints as JSON files.
	CheckpointBackendJSON CheckpointBackend = "json"
)

// IsValid returns true if the backend is recognised.
func (b CheckpointBackend) IsValid() bool {
	return b == CheckpointBackendSQLite || b == CheckpointBackendJSON
}

// OCRSettings holds optical recognition configuration.
type OCRSettings struct {
	// Enabled turns page recognition on. When off, scanned pages keep
	// whatever native text they have.
	Enabled bool

	// Languages are two-letter codes passed to the engine at construction.
	Languages []string

	// Accelerator requests hardware acceleration where the engine has it.
	Accelerator bool

	// RenderScale multiplies the 100 DPI base render resolution.
	RenderScale float64

	// MinConfidence drops recognised words below this score (0..1).
	MinConfidence float64

	// PageLimit caps recognised pages per document.
	PageLimit int

	// PDFMinTextRatio is the classifier ratio floor for PDF pages.
	PDFMinTextRatio float64

	// DjVuMinTextRatio is the classifier ratio floor for DjVu pages.
	DjVuMinTextRatio float64
}

// DPI returns the page render resolution.
func (o OCRSettings) DPI() int {
	return int(100*o.RenderScale + 0.5)
}

// ToolSettings holds external tool configuration.
type ToolSettings struct {
	// SearchDirs are probed after PATH. Empty means platform defaults.
	SearchDirs []string

	// ExtractTimeout bounds text-layer extraction calls.
	ExtractTimeout time.Duration

	// ConvertTimeout bounds whole-document conversion calls.
	ConvertTimeout time.Duration

	// RenderTimeout bounds single-page render calls.
	RenderTimeout time.Duration
}

// ChunkerSettings holds semantic chunker configuration.
type ChunkerSettings struct {
	// SimilarityThreshold is the adjacent-sentence cosine floor for merging.
	SimilarityThreshold float64

	// MinPassageLength drops passages shorter than this many characters.
	MinPassageLength int

	// PassagePrefix is prepended to every text sent for embedding.
	PassagePrefix string
}

// EntitySettings holds entity extraction configuration.
type EntitySettings struct {
	// MinOccurrence is the corpus count a lemma needs to be kept.
	MinOccurrence int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the number of texts per embedding request.
	BatchSize int

	// RequestsPerSecond limits request rate for cloud providers.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings holds similarity index configuration.
type IndexSettings struct {
	// Backend is the index implementation.
	Backend IndexBackend

	// FlatThreshold is the passage count at which IVF replaces flat.
	FlatThreshold int

	// NProbe is the number of clusters probed per IVF query.
	NProbe int
}

// CheckpointSettings holds checkpoint storage configuration.
type CheckpointSettings struct {
	Backend CheckpointBackend
}

// KeywordIndexSettings holds the optional full-text index configuration.
type KeywordIndexSettings struct {
	Enabled bool
}

// OutputSettings holds artifact location configuration.
type OutputSettings struct {
	// Dir is the artifact directory. Empty means the current directory.
	Dir string
}

// PipelineSettings holds run-level switches.
type PipelineSettings struct {
	// ForceRecompute discards checkpoints and rebuilds everything.
	ForceRecompute bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	Pipeline     PipelineSettings
	OCR          OCRSettings
	Tools        ToolSettings
	Chunker      ChunkerSettings
	Entities     EntitySettings
	Embedding    EmbeddingSettings
	Index        IndexSettings
	Checkpoint   CheckpointSettings
	KeywordIndex KeywordIndexSettings
	Output       OutputSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		OCR: OCRSettings{
			Enabled:          true,
			Languages:        []string{"ru", "en"},
			Accelerator:      false,
			RenderScale:      3.0,
			MinConfidence:    0.28,
			PageLimit:        500,
			PDFMinTextRatio:  0.10,
			DjVuMinTextRatio: 0.15,
		},
		Tools: ToolSettings{
			ExtractTimeout: 120 * time.Second,
			ConvertTimeout: 300 * time.Second,
			RenderTimeout:  90 * time.Second,
		},
		Chunker: ChunkerSettings{
			SimilarityThreshold: 0.80,
			MinPassageLength:    MinTextLength,
			PassagePrefix:       "passage: ",
		},
		Entities: EntitySettings{
			MinOccurrence: 3,
		},
		Embedding: EmbeddingSettings{
			Provider:          AIProviderOllama,
			Model:             DefaultEmbeddingModels()[AIProviderOllama],
			BaseURL:           "http://localhost:11434",
			BatchSize:         64,
			RequestsPerSecond: 5,
		},
		Index: IndexSettings{
			Backend:       IndexBackendNative,
			FlatThreshold: 5000,
			NProbe:        32,
		},
		Checkpoint: CheckpointSettings{
			Backend: CheckpointBackendSQLite,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "bge-m3",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns known vector sizes per embedding model.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"bge-m3":                  1024,
		"multilingual-e5-large":   1024,
		"nomic-embed-text":        768,
		"mxbai-embed-large":       1024,
		"paraphrase-multilingual": 768,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFromSettings derives the post-processor chain from chunker settings.
func PipelineConfigFromSettings(c ChunkerSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"semantic_chunker", "minlength"},
		ProcessorConfigs: map[string]map[string]any{
			"semantic_chunker": {
				"threshold": c.SimilarityThreshold,
				"prefix":    c.PassagePrefix,
			},
			"minlength": {
				"min_length": c.MinPassageLength,
			},
		},
	}
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfigFromSettings(DefaultAppSettings().Chunker)
}
