package postprocessors

import (
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/postprocessors/chunker"
	"github.com/pronin-ni/rag-plants/internal/postprocessors/minlength"
)

// RegisterDefaults registers all built-in processors with the registry.
// The semantic chunker embeds sentences with embedder.
func RegisterDefaults(r *Registry, embedder driven.EmbeddingService) {
	r.Register(chunker.Name, func(cfg map[string]any) (driven.PostProcessor, error) {
		return buildSemanticChunker(embedder, cfg)
	})
	r.Register(minlength.Name, buildMinLength)
}

// buildSemanticChunker creates the semantic chunker from generic config.
// Supported config keys:
//   - threshold (float): Adjacent-sentence similarity to merge (default: 0.80)
//   - prefix (string): Embedding prompt prefix (default: "passage: ")
//   - batch_size (int): Sentences per embedding request (default: 64)
func buildSemanticChunker(embedder driven.EmbeddingService, cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if threshold := getFloatFromConfig(cfg, "threshold"); threshold > 0 {
			opts = append(opts, chunker.WithThreshold(threshold))
		}
		if prefix, ok := cfg["prefix"].(string); ok {
			opts = append(opts, chunker.WithPrefix(prefix))
		}
		if size := getIntFromConfig(cfg, "batch_size"); size > 0 {
			opts = append(opts, chunker.WithBatchSize(size))
		}
	}

	return chunker.New(embedder, opts...), nil
}

// buildMinLength creates the passage length filter.
// Supported config keys:
//   - min_length (int): Minimum passage characters (default: 50)
func buildMinLength(cfg map[string]any) (driven.PostProcessor, error) {
	return minlength.New(getIntFromConfig(cfg, "min_length")), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// getFloatFromConfig safely extracts a float64 from generic config map.
func getFloatFromConfig(cfg map[string]any, key string) float64 {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
