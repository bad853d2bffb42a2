package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pronin-ni/rag-plants/internal/adapters/driven/ai"
	"github.com/pronin-ni/rag-plants/internal/adapters/driven/lemma/snowball"
	"github.com/pronin-ni/rag-plants/internal/adapters/driven/ocr/tesseract"
	"github.com/pronin-ni/rag-plants/internal/adapters/driven/search/bleve"
	"github.com/pronin-ni/rag-plants/internal/adapters/driven/storage/jsonfile"
	"github.com/pronin-ni/rag-plants/internal/adapters/driven/storage/npy"
	"github.com/pronin-ni/rag-plants/internal/adapters/driven/storage/sqlite"
	"github.com/pronin-ni/rag-plants/internal/adapters/driven/tools"
	"github.com/pronin-ni/rag-plants/internal/adapters/driving/cli"
	"github.com/pronin-ni/rag-plants/internal/cascade"
	"github.com/pronin-ni/rag-plants/internal/connectors/filesystem"
	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/core/services"
	"github.com/pronin-ni/rag-plants/internal/index"
	"github.com/pronin-ni/rag-plants/internal/normalisers"
	"github.com/pronin-ni/rag-plants/internal/postprocessors"
)

// KeywordDirName is the bleve index directory inside the output directory.
const KeywordDirName = "keyword.bleve"

// newPipelineFactory returns the factory the CLI uses to open an output directory.
func newPipelineFactory(settingsService *services.SettingsService) cli.PipelineFactory {
	return func(_ context.Context, opts cli.PipelineOptions) (*cli.Pipeline, error) {
		settings, err := settingsService.Get()
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		if opts.OutputDir != "" {
			settings.Output.Dir = opts.OutputDir
		}
		cfg := services.BuildConfigFromSettings(settings)

		w := &wiring{}
		deps, err := w.deps(settings, cfg.OutputDir, opts.Embeddings, settingsService.GetPipelineConfig())
		if err != nil {
			w.close()
			return nil, err
		}

		return &cli.Pipeline{
			Build:   services.NewBuildService(deps, cfg),
			Inspect: services.NewInspectService(deps, cfg),
			Close:   w.close,
		}, nil
	}
}

// wiring tracks what was opened so it can be released in reverse order.
type wiring struct {
	closers []func() error
}

func (w *wiring) add(fn func() error) {
	w.closers = append(w.closers, fn)
}

func (w *wiring) close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	return errors.Join(errs...)
}

func (w *wiring) deps(settings *domain.AppSettings, out string, embeddings bool, pipelineCfg domain.PipelineConfig) (services.BuildDeps, error) {
	var deps services.BuildDeps

	checkpoints, runs, err := w.checkpointStore(settings.Checkpoint.Backend, out)
	if err != nil {
		return deps, err
	}
	deps.Checkpoints = checkpoints
	deps.Runs = runs

	matrices, err := npy.NewStore(filepath.Join(out, npy.DefaultFileName))
	if err != nil {
		return deps, fmt.Errorf("failed to open embedding store: %w", err)
	}
	deps.Embeddings = matrices
	deps.Indexer = index.NewBackend(settings.Index.Backend)
	deps.Lemmatizer = snowball.New()

	if settings.KeywordIndex.Enabled {
		keyword, err := bleve.New(filepath.Join(out, KeywordDirName))
		if err != nil {
			return deps, fmt.Errorf("failed to open keyword index: %w", err)
		}
		w.add(keyword.Close)
		deps.Keyword = keyword
	}

	if embeddings {
		embedder, err := ai.CreateAndValidateEmbeddingService(&settings.Embedding)
		if err != nil {
			return deps, err
		}
		w.add(embedder.Close)
		deps.Embedder = embedder
	}

	engine := ocrEngine(settings.OCR)
	w.add(engine.Close)

	locator := tools.NewLocator(tools.WithSearchDirs(settings.Tools.SearchDirs...))
	box := cascade.NewToolbox(locator, tools.NewExecRunner(), settings.Tools)
	ocr := cascade.New(engine, cascade.DefaultConfig(settings.OCR))

	registry := normalisers.NewRegistry()
	normalisers.RegisterDefaults(registry, box, ocr)
	deps.Registry = registry

	processors := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processors, deps.Embedder)
	pipeline, err := processors.BuildPipeline(pipelineCfg)
	if err != nil {
		return deps, err
	}
	deps.Pipeline = pipeline

	deps.Connector = func(inputDir string) driven.Connector {
		return filesystem.New(inputDir)
	}
	return deps, nil
}

func (w *wiring) checkpointStore(backend domain.CheckpointBackend, out string) (driven.CheckpointStore, driven.RunStore, error) {
	if backend == domain.CheckpointBackendJSON {
		store, err := jsonfile.NewStore(out)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open checkpoint store: %w", err)
		}
		w.add(store.Close)
		return store, nil, nil
	}

	store, err := sqlite.NewStore(out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	w.add(store.Close)
	return store, store.RunStore(), nil
}

func ocrEngine(s domain.OCRSettings) driven.OCREngine {
	if !s.Enabled {
		return tesseract.NoopEngine{}
	}
	return tesseract.New(s.Languages,
		tesseract.WithMinConfidence(s.MinConfidence),
		tesseract.WithAccelerator(s.Accelerator))
}
