package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driving"
	"github.com/pronin-ni/rag-plants/internal/entities"
	"github.com/pronin-ni/rag-plants/internal/index"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// Ensure BuildService implements the interface.
var _ driving.BuildService = (*BuildService)(nil)

// LockFileName is the advisory lock held in the output directory during a build.
const LockFileName = ".build.lock"

// Build defaults.
const (
	DefaultEmbedBatchSize = 64
	DefaultDebounce       = 2 * time.Second
	DefaultKeepRuns       = 50
)

// ConnectorFunc opens a connector over an input directory.
type ConnectorFunc func(inputDir string) driven.Connector

// BuildDeps holds the ports a build runs against.
// Keyword, Runs and Lemmatizer are optional.
type BuildDeps struct {
	Connector   ConnectorFunc
	Registry    driven.NormaliserRegistry
	Pipeline    driven.PostProcessorPipeline
	Embedder    driven.EmbeddingService
	Checkpoints driven.CheckpointStore
	Embeddings  driven.EmbeddingStore
	Indexer     driven.IndexBuilder
	Keyword     driven.KeywordIndex
	Runs        driven.RunStore
	Lemmatizer  driven.Lemmatizer
}

// BuildConfig holds the run parameters of a build.
type BuildConfig struct {
	// OutputDir receives the lock file and the index.
	OutputDir string

	// PassagePrefix is prepended to passages sent for embedding.
	PassagePrefix string

	// BatchSize is the number of passages per embedding request.
	BatchSize int

	// MinOccurrence is the corpus count an entity needs to be kept.
	MinOccurrence int

	FlatThreshold int
	NProbe        int

	// Debounce is the quiet period Watch waits for before rebuilding.
	Debounce time.Duration

	// KeepRuns bounds the recorded run history.
	KeepRuns int
}

// BuildConfigFromSettings derives the build parameters from settings.
func BuildConfigFromSettings(s *domain.AppSettings) BuildConfig {
	out := s.Output.Dir
	if out == "" {
		out = "."
	}
	return BuildConfig{
		OutputDir:     out,
		PassagePrefix: s.Chunker.PassagePrefix,
		BatchSize:     s.Embedding.BatchSize,
		MinOccurrence: s.Entities.MinOccurrence,
		FlatThreshold: s.Index.FlatThreshold,
		NProbe:        s.Index.NProbe,
	}
}

// BuildService runs the document-to-index pipeline.
// One document is processed at a time; a failing document is skipped.
type BuildService struct {
	deps BuildDeps
	cfg  BuildConfig
}

// NewBuildService creates a build service.
func NewBuildService(deps BuildDeps, cfg BuildConfig) *BuildService {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEmbedBatchSize
	}
	if cfg.MinOccurrence <= 0 {
		cfg.MinOccurrence = entities.DefaultMinOccurrence
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.KeepRuns <= 0 {
		cfg.KeepRuns = DefaultKeepRuns
	}
	return &BuildService{deps: deps, cfg: cfg}
}

// IndexPath returns where the similarity index is written.
func (s *BuildService) IndexPath() string {
	return filepath.Join(s.cfg.OutputDir, index.DefaultFileName)
}

// Build processes the input directory into index artifacts.
func (s *BuildService) Build(ctx context.Context, opts driving.BuildOptions) (*driving.BuildReport, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	run := &domain.BuildRun{ID: uuid.NewString(), StartedAt: time.Now()}
	s.recordRun(ctx, run)

	report, err := s.build(ctx, opts, run.ID)

	run.EndedAt = time.Now()
	run.Success = err == nil
	if err != nil {
		run.Error = err.Error()
		logger.Error("build %s failed: %v", run.ID, err)
	}
	if report != nil {
		report.Duration = run.EndedAt.Sub(run.StartedAt)
		run.Documents = report.Documents
		run.Skipped = len(report.Skipped)
		run.Passages = report.Passages
		run.Entities = report.Entities
		run.Resumed = report.Resumed
	}
	s.recordRun(ctx, run)

	if err != nil {
		return nil, err
	}
	return report, nil
}

// lock takes the output directory lock without waiting.
func (s *BuildService) lock() (func(), error) {
	path := filepath.Join(s.cfg.OutputDir, LockFileName)
	l := flock.New(path)

	locked, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire build lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexLocked, path)
	}
	return func() { _ = l.Unlock() }, nil
}

// recordRun stores run in the history. History failures never fail a build.
func (s *BuildService) recordRun(ctx context.Context, run *domain.BuildRun) {
	if s.deps.Runs == nil {
		return
	}
	if err := s.deps.Runs.RecordRun(ctx, run); err != nil {
		logger.Warn("record run %s: %v", run.ID, err)
		return
	}
	if run.EndedAt.IsZero() {
		return
	}
	if err := s.deps.Runs.PruneRuns(ctx, s.cfg.KeepRuns); err != nil {
		logger.Warn("prune runs: %v", err)
	}
}

//nolint:gocyclo // Sequential pipeline stages
func (s *BuildService) build(ctx context.Context, opts driving.BuildOptions, runID string) (*driving.BuildReport, error) {
	report := &driving.BuildReport{RunID: runID}
	logger.Info("Build %s started", runID)

	if opts.Force {
		if err := s.clear(ctx); err != nil {
			return nil, err
		}
	}

	// 1. PASSAGES (checkpoint or extraction)
	logger.Section("passages")
	cp, err := s.passages(ctx, opts, report)
	if err != nil {
		return nil, err
	}
	report.Passages = len(cp.Passages)
	report.Entities = len(cp.Entities)
	logger.Info("%d passages, %d entities", report.Passages, report.Entities)

	if len(cp.Passages) == 0 {
		logger.Warn("no passages extracted from %s, index not built", opts.InputDir)
		return report, nil
	}

	// 2. EMBEDDINGS
	logger.Section("embeddings")
	m, err := s.embeddings(ctx, cp, report)
	if err != nil {
		return nil, err
	}

	// 3. INDEX
	logger.Section("index")
	report.Plan = index.Plan(m.Rows, s.cfg.FlatThreshold, s.cfg.NProbe)
	logger.Info("Index plan: %s (%s backend)", report.Plan.Description(), s.deps.Indexer.Name())

	idx, err := s.deps.Indexer.Build(ctx, m, report.Plan)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	defer idx.Close()

	report.IndexPath = s.IndexPath()
	if err := idx.Save(report.IndexPath); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	logger.Info("Index written to %s (%d vectors)", report.IndexPath, idx.Len())

	// 4. KEYWORD INDEX (optional)
	if s.deps.Keyword != nil {
		if err := s.deps.Keyword.IndexPassages(ctx, cp.Passages, cp.Metadata); err != nil {
			if errors.Is(err, domain.ErrCheckpointMismatch) {
				return nil, fmt.Errorf("keyword index: %w", err)
			}
			logger.Warn("keyword index: %v", err)
		}
	}

	logger.Info("Build %s complete", runID)
	return report, nil
}

// clear discards every checkpointed artifact.
func (s *BuildService) clear(ctx context.Context) error {
	if err := s.deps.Checkpoints.Clear(ctx); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	if err := s.deps.Embeddings.Clear(ctx); err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}
	return nil
}

// passages reloads the checkpoint when one exists, otherwise extracts
// the corpus and saves a new checkpoint.
func (s *BuildService) passages(ctx context.Context, opts driving.BuildOptions, report *driving.BuildReport) (*domain.Checkpoint, error) {
	if !opts.Force {
		ok, err := s.deps.Checkpoints.Exists(ctx)
		if err != nil {
			return nil, fmt.Errorf("check checkpoint: %w", err)
		}
		if ok {
			cp, err := s.deps.Checkpoints.Load(ctx)
			if err != nil {
				return nil, fmt.Errorf("load checkpoint: %w", err)
			}
			report.Resumed = true
			logger.Info("Resumed %d passages from checkpoint", len(cp.Passages))
			return cp, nil
		}
	}

	cp, err := s.extract(ctx, opts, report)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Checkpoints.Save(ctx, cp); err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}
	return cp, nil
}

// extract reads every document of the input directory.
//
//nolint:gocognit // Orchestration over the connector channels
func (s *BuildService) extract(ctx context.Context, opts driving.BuildOptions, report *driving.BuildReport) (*domain.Checkpoint, error) {
	if s.deps.Connector == nil {
		return nil, fmt.Errorf("%w: connector not configured", domain.ErrInvalidInput)
	}
	conn := s.deps.Connector(opts.InputDir)
	defer conn.Close()

	if err := conn.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate input: %w", err)
	}

	ext := entities.NewExtractor(s.deps.Lemmatizer, s.cfg.MinOccurrence)
	if !ext.Enabled() {
		logger.Warn("no lemmatizer configured, entity extraction skipped")
	}

	cp := &domain.Checkpoint{}
	docsCh, errsCh := conn.FullSync(ctx)

	for docsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("connector error: %w", err)
			}

		case raw, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}

			report.Documents++
			n, outcome, err := s.processDocument(ctx, &raw, ext, cp, report)
			if err != nil {
				return nil, err
			}
			if opts.Progress != nil {
				opts.Progress(driving.ProgressEvent{
					Index:    report.Documents,
					Source:   filepath.Base(raw.URI),
					Passages: n,
					Outcome:  outcome,
				})
			}
		}
	}

	cp.Entities = ext.Final()
	return cp, nil
}

// processDocument normalises, chunks and appends one document.
// Only cancellation is returned as an error; every other failure
// becomes a skip record.
func (s *BuildService) processDocument(
	ctx context.Context,
	raw *domain.RawDocument,
	ext *entities.Extractor,
	cp *domain.Checkpoint,
	report *driving.BuildReport,
) (int, domain.Outcome, error) {
	source := filepath.Base(raw.URI)
	skip := func(reason string) (int, domain.Outcome, error) {
		logger.Error("skip %s: %s", source, reason)
		report.Skipped = append(report.Skipped, driving.SkipRecord{Source: source, Reason: reason})
		return 0, domain.Skip(reason), nil
	}

	logger.Debug("Processing: %s", raw.URI)

	// 1. NORMALISE
	result, err := s.deps.Registry.Normalise(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return 0, domain.Outcome{}, ctx.Err()
		}
		return skip(err.Error())
	}
	if result.Outcome.IsSkip() {
		return skip(result.Outcome.Diagnostic)
	}

	doc := result.Document
	doc.Content = NormaliseText(doc.Content)
	if utf8.RuneCountInString(doc.Content) < domain.MinTextLength {
		return skip(domain.ErrInsufficientText.Error())
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	// 2. ENTITY CANDIDATES
	ext.Add(doc.Content)

	// 3. CHUNK
	passages, err := s.deps.Pipeline.Process(ctx, &doc)
	if err != nil {
		if ctx.Err() != nil {
			return 0, domain.Outcome{}, ctx.Err()
		}
		return skip(fmt.Sprintf("chunk: %v", err))
	}
	if len(passages) == 0 {
		return skip("no passages after chunking")
	}

	for _, p := range passages {
		cp.Passages = append(cp.Passages, p.Text)
		cp.Metadata = append(cp.Metadata, p.Metadata)
	}
	if doc.Partial {
		report.Partial = append(report.Partial, source)
	}

	logger.Info("%s: %d passages (%s)", source, len(passages), result.Outcome.Status)
	return len(passages), result.Outcome, nil
}

// embeddings reloads the matrix for resumed passages, otherwise embeds
// every passage and saves the result. A row count mismatch is fatal.
func (s *BuildService) embeddings(ctx context.Context, cp *domain.Checkpoint, report *driving.BuildReport) (domain.Matrix, error) {
	n := len(cp.Passages)

	if report.Resumed {
		m, err := s.deps.Embeddings.Load(ctx, n)
		switch {
		case err == nil:
			report.EmbeddingsResumed = true
			logger.Info("Resumed %d embeddings from %s", m.Rows, s.deps.Embeddings.Path())
			return m, nil
		case errors.Is(err, domain.ErrCheckpointMismatch):
			return domain.Matrix{}, fmt.Errorf("load embeddings: %w", err)
		case errors.Is(err, domain.ErrNotFound):
		default:
			logger.Warn("load embeddings: %v, recomputing", err)
		}
	}

	if s.deps.Embedder == nil {
		return domain.Matrix{}, domain.ErrEmbeddingUnavailable
	}

	vectors := make([][]float32, 0, n)
	for start := 0; start < n; start += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return domain.Matrix{}, err
		}
		end := min(start+s.cfg.BatchSize, n)

		batch := make([]string, 0, end-start)
		for _, text := range cp.Passages[start:end] {
			batch = append(batch, s.cfg.PassagePrefix+text)
		}

		got, err := s.deps.Embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return domain.Matrix{}, fmt.Errorf("embed passages %d-%d: %w", start, end, err)
		}
		if len(got) != len(batch) {
			return domain.Matrix{}, fmt.Errorf("%w: got %d vectors for %d passages",
				domain.ErrCheckpointMismatch, len(got), len(batch))
		}
		vectors = append(vectors, got...)
		logger.Debug("embedded %d/%d passages", end, n)
	}

	m, err := domain.NewMatrix(vectors)
	if err != nil {
		return domain.Matrix{}, fmt.Errorf("embed passages: %w", err)
	}
	if err := m.CheckRows(n); err != nil {
		return domain.Matrix{}, err
	}
	if err := s.deps.Embeddings.Save(ctx, m); err != nil {
		return domain.Matrix{}, fmt.Errorf("save embeddings: %w", err)
	}
	return m, nil
}

// Watch runs Build, then rebuilds from scratch once input changes settle.
// Returns when ctx is done or the change stream closes.
func (s *BuildService) Watch(ctx context.Context, opts driving.BuildOptions, onReport func(*driving.BuildReport, error)) error {
	if s.deps.Connector == nil {
		return fmt.Errorf("%w: connector not configured", domain.ErrInvalidInput)
	}
	if onReport == nil {
		onReport = func(*driving.BuildReport, error) {}
	}

	report, err := s.Build(ctx, opts)
	onReport(report, err)
	if ctx.Err() != nil {
		return nil
	}

	conn := s.deps.Connector(opts.InputDir)
	defer conn.Close()

	changes, err := conn.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", opts.InputDir, err)
	}

	opts.Force = true
	timer := time.NewTimer(s.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case change, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("watch: %s %s", change.Type, change.Document.URI)
			timer.Reset(s.cfg.Debounce)

		case <-timer.C:
			logger.Info("Input changed, rebuilding")
			report, err := s.Build(ctx, opts)
			onReport(report, err)
		}
	}
}

var whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)

// NormaliseText composes text to NFC and collapses whitespace runs to
// single spaces.
func NormaliseText(text string) string {
	text = norm.NFC.String(text)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
