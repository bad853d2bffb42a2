package driving

import "github.com/pronin-ni/rag-plants/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with environment
	// overrides applied on top of the stored configuration.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set validates and stores a single dot-notation key (e.g. "ocr.page_limit").
	Set(key, value string) error

	// Keys returns every recognised configuration key in display order.
	Keys() []string

	// Values returns the effective value of every key, in Keys order.
	Values() ([]Setting, error)

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks if current settings are usable for a build.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// GetPipelineConfig returns the post-processor chain configuration.
	GetPipelineConfig() domain.PipelineConfig
}

// Setting is one configuration key with its effective value.
type Setting struct {
	Key   string
	Value string

	// Env is the environment variable that overrides the key.
	Env string
}
