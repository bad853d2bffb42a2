package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driving"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvPrefix prefixes environment overrides: ocr.enabled is read from
// RAGPLANTS_OCR_ENABLED.
const EnvPrefix = "RAGPLANTS_"

//nolint:gosec // G101: config key name, not a credential.
const keyEmbedAPIKey = "embedding.api_key"

// settingKeys lists every configuration key in display order.
var settingKeys = []string{
	"pipeline.force_recompute",
	"ocr.enabled",
	"ocr.languages",
	"ocr.accelerator",
	"ocr.render_scale",
	"ocr.min_confidence",
	"ocr.page_limit",
	"ocr.pdf_min_text_ratio",
	"ocr.djvu_min_text_ratio",
	"tools.search_dirs",
	"tools.extract_timeout",
	"tools.convert_timeout",
	"tools.render_timeout",
	"chunker.similarity_threshold",
	"chunker.min_passage_length",
	"chunker.passage_prefix",
	"entities.min_occurrence",
	"embedding.provider",
	"embedding.model",
	"embedding.base_url",
	keyEmbedAPIKey,
	"embedding.batch_size",
	"embedding.requests_per_second",
	"index.backend",
	"index.flat_threshold",
	"index.nprobe",
	"checkpoint.backend",
	"keyword_index.enabled",
	"output.dir",
}

// settingFields maps each key to the settings field it controls.
func settingFields(s *domain.AppSettings) map[string]any {
	return map[string]any{
		"pipeline.force_recompute":      &s.Pipeline.ForceRecompute,
		"ocr.enabled":                   &s.OCR.Enabled,
		"ocr.languages":                 &s.OCR.Languages,
		"ocr.accelerator":               &s.OCR.Accelerator,
		"ocr.render_scale":              &s.OCR.RenderScale,
		"ocr.min_confidence":            &s.OCR.MinConfidence,
		"ocr.page_limit":                &s.OCR.PageLimit,
		"ocr.pdf_min_text_ratio":        &s.OCR.PDFMinTextRatio,
		"ocr.djvu_min_text_ratio":       &s.OCR.DjVuMinTextRatio,
		"tools.search_dirs":             &s.Tools.SearchDirs,
		"tools.extract_timeout":         &s.Tools.ExtractTimeout,
		"tools.convert_timeout":         &s.Tools.ConvertTimeout,
		"tools.render_timeout":          &s.Tools.RenderTimeout,
		"chunker.similarity_threshold":  &s.Chunker.SimilarityThreshold,
		"chunker.min_passage_length":    &s.Chunker.MinPassageLength,
		"chunker.passage_prefix":        &s.Chunker.PassagePrefix,
		"entities.min_occurrence":       &s.Entities.MinOccurrence,
		"embedding.provider":            &s.Embedding.Provider,
		"embedding.model":               &s.Embedding.Model,
		"embedding.base_url":            &s.Embedding.BaseURL,
		keyEmbedAPIKey:                  &s.Embedding.APIKey,
		"embedding.batch_size":          &s.Embedding.BatchSize,
		"embedding.requests_per_second": &s.Embedding.RequestsPerSecond,
		"index.backend":                 &s.Index.Backend,
		"index.flat_threshold":          &s.Index.FlatThreshold,
		"index.nprobe":                  &s.Index.NProbe,
		"checkpoint.backend":            &s.Checkpoint.Backend,
		"keyword_index.enabled":         &s.KeywordIndex.Enabled,
		"output.dir":                    &s.Output.Dir,
	}
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Keys returns every recognised configuration key in display order.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), settingKeys...)
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Get returns defaults, overlaid with stored values, overlaid with
// environment overrides. Stored values of the wrong type are ignored
// with a warning; malformed environment overrides are errors.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	fields := settingFields(&settings)

	for _, key := range settingKeys {
		raw, ok := s.configStore.Get(key)
		if !ok {
			continue
		}
		if err := assignStored(fields[key], raw); err != nil {
			logger.Warn("config %s: %v (using default)", key, err)
		}
	}

	for _, key := range settingKeys {
		val, ok := os.LookupEnv(EnvName(key))
		if !ok {
			continue
		}
		if err := parseInto(fields[key], val); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvName(key), err)
		}
	}

	if !settings.Embedding.Provider.IsValid() {
		logger.Warn("unknown embedding provider %q (using default)", settings.Embedding.Provider)
		settings.Embedding.Provider = domain.DefaultAppSettings().Embedding.Provider
	}

	return &settings, nil
}

// Save persists every key of settings. An empty API key is not written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	fields := settingFields(settings)
	for _, key := range settingKeys {
		val := storedValue(fields[key])
		if key == keyEmbedAPIKey && val == "" {
			continue
		}
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Set parses value for key, validates the resulting settings and stores it.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	field, ok := settingFields(settings)[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := parseInto(field, value); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if err := validateSettings(settings); err != nil {
		return err
	}
	return s.configStore.Set(key, storedValue(field))
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	// Local providers need a base URL; cloud providers use their own.
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = domain.DefaultAppSettings().Embedding.BaseURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks if current settings are usable for a build.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := validateSettings(settings); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s is not configured", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// GetPipelineConfig returns the post-processor chain configuration.
// pipeline.processors overrides the processor order.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	settings, err := s.Get()
	if err != nil {
		logger.Warn("settings: %v (using default pipeline)", err)
		return domain.DefaultPipelineConfig()
	}

	cfg := domain.PipelineConfigFromSettings(settings.Chunker)
	if c := cfg.GetProcessorConfig("semantic_chunker"); c != nil {
		c["batch_size"] = settings.Embedding.BatchSize
	}
	if processors := s.configStore.GetStringSlice("pipeline.processors"); len(processors) > 0 {
		cfg.Processors = processors
	}
	return cfg
}

func validateSettings(s *domain.AppSettings) error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(inUnit(s.OCR.MinConfidence), "ocr.min_confidence must be in [0, 1]")
	check(inUnit(s.OCR.PDFMinTextRatio), "ocr.pdf_min_text_ratio must be in [0, 1]")
	check(inUnit(s.OCR.DjVuMinTextRatio), "ocr.djvu_min_text_ratio must be in [0, 1]")
	check(s.OCR.RenderScale > 0, "ocr.render_scale must be positive")
	check(s.OCR.PageLimit >= 0, "ocr.page_limit must not be negative")
	check(s.Tools.ExtractTimeout > 0, "tools.extract_timeout must be positive")
	check(s.Tools.ConvertTimeout > 0, "tools.convert_timeout must be positive")
	check(s.Tools.RenderTimeout > 0, "tools.render_timeout must be positive")
	check(s.Chunker.SimilarityThreshold > 0 && s.Chunker.SimilarityThreshold <= 1,
		"chunker.similarity_threshold must be in (0, 1]")
	check(s.Chunker.MinPassageLength > 0, "chunker.min_passage_length must be positive")
	check(s.Entities.MinOccurrence > 0, "entities.min_occurrence must be positive")
	check(s.Embedding.Provider.IsValid(), "embedding.provider %q is not supported", s.Embedding.Provider)
	check(s.Embedding.BatchSize > 0, "embedding.batch_size must be positive")
	check(s.Index.Backend.IsValid(), "index.backend %q is not supported", s.Index.Backend)
	check(s.Index.FlatThreshold > 0, "index.flat_threshold must be positive")
	check(s.Index.NProbe > 0, "index.nprobe must be positive")
	check(s.Checkpoint.Backend.IsValid(), "checkpoint.backend %q is not supported", s.Checkpoint.Backend)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// assignStored copies a value read from the config store into field.
// Strings are parsed, so "300s" and "0.5" work for any field type.
func assignStored(field, raw any) error {
	if str, ok := raw.(string); ok {
		return parseInto(field, str)
	}

	switch f := field.(type) {
	case *bool:
		b, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("expected boolean, got %T", raw)
		}
		*f = b
	case *int:
		switch v := raw.(type) {
		case int64:
			*f = int(v)
		case int:
			*f = v
		default:
			return fmt.Errorf("expected integer, got %T", raw)
		}
	case *float64:
		switch v := raw.(type) {
		case float64:
			*f = v
		case int64:
			*f = float64(v)
		case int:
			*f = float64(v)
		default:
			return fmt.Errorf("expected number, got %T", raw)
		}
	case *time.Duration:
		switch v := raw.(type) {
		case int64:
			*f = time.Duration(v) * time.Second
		case int:
			*f = time.Duration(v) * time.Second
		default:
			return fmt.Errorf("expected duration, got %T", raw)
		}
	case *[]string:
		switch v := raw.(type) {
		case []string:
			*f = append([]string(nil), v...)
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				str, ok := item.(string)
				if !ok {
					return fmt.Errorf("expected string list, got %T element", item)
				}
				out = append(out, str)
			}
			*f = out
		default:
			return fmt.Errorf("expected string list, got %T", raw)
		}
	default:
		return fmt.Errorf("expected string, got %T", raw)
	}
	return nil
}

// parseInto parses a textual value into field.
func parseInto(field any, value string) error {
	value = strings.TrimSpace(value)
	switch f := field.(type) {
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*f = b
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*f = n
	case *float64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		*f = v
	case *time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*f = d
	case *[]string:
		*f = splitList(value)
	case *string:
		*f = value
	case *domain.AIProvider:
		*f = domain.AIProvider(value)
	case *domain.IndexBackend:
		*f = domain.IndexBackend(value)
	case *domain.CheckpointBackend:
		*f = domain.CheckpointBackend(value)
	default:
		return fmt.Errorf("unsupported field type %T", field)
	}
	return nil
}

// storedValue returns the config store representation of field.
func storedValue(field any) any {
	switch f := field.(type) {
	case *bool:
		return *f
	case *int:
		return *f
	case *float64:
		return *f
	case *time.Duration:
		return f.String()
	case *[]string:
		return append([]string{}, *f...)
	case *string:
		return *f
	case *domain.AIProvider:
		return f.String()
	case *domain.IndexBackend:
		return string(*f)
	case *domain.CheckpointBackend:
		return string(*f)
	default:
		return nil
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Values returns the effective value of every key.
func (s *SettingsService) Values() ([]driving.Setting, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	values := make([]driving.Setting, 0, len(settingKeys))
	for _, key := range settingKeys {
		value, _ := FormatValue(settings, key)
		values = append(values, driving.Setting{Key: key, Value: value, Env: EnvName(key)})
	}
	return values, nil
}

// FormatValue renders a settings field for display.
func FormatValue(settings *domain.AppSettings, key string) (string, bool) {
	field, ok := settingFields(settings)[key]
	if !ok {
		return "", false
	}
	switch v := storedValue(field).(type) {
	case []string:
		return strings.Join(v, ","), true
	default:
		return fmt.Sprint(v), true
	}
}
