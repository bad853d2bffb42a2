package cli

import (
	"bytes"
	"context"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driving"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.AppSettings
	set         map[string]string
	setErr      error
	validateErr error
	provider    domain.AIProvider
	model       string
	apiKey      string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"ocr.enabled", "ocr.languages", "embedding.provider", "embedding.api_key"}
}

func (m *mockSettingsService) Values() ([]driving.Setting, error) {
	return []driving.Setting{
		{Key: "ocr.enabled", Value: "true", Env: "RAGPLANTS_OCR_ENABLED"},
		{Key: "ocr.languages", Value: "ru,en", Env: "RAGPLANTS_OCR_LANGUAGES"},
		{Key: "embedding.provider", Value: "openai", Env: "RAGPLANTS_EMBEDDING_PROVIDER"},
		{Key: "embedding.api_key", Value: "sk-1234567890abcdef", Env: "RAGPLANTS_EMBEDDING_API_KEY"},
	}, nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.provider = provider
	m.model = model
	m.apiKey = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) GetPipelineConfig() domain.PipelineConfig {
	return domain.DefaultPipelineConfig()
}

// mockToolService implements driving.ToolService for testing.
type mockToolService struct {
	statuses []driving.ToolStatus
}

func (m *mockToolService) Check() []driving.ToolStatus { return m.statuses }

// mockBuildService implements driving.BuildService for testing.
type mockBuildService struct {
	opts    driving.BuildOptions
	report  *driving.BuildReport
	err     error
	watched bool
}

func (m *mockBuildService) Build(_ context.Context, opts driving.BuildOptions) (*driving.BuildReport, error) {
	m.opts = opts
	if opts.Progress != nil {
		opts.Progress(driving.ProgressEvent{Index: 1, Source: "a.txt", Passages: 2})
	}
	return m.report, m.err
}

func (m *mockBuildService) Watch(ctx context.Context, opts driving.BuildOptions, onReport func(*driving.BuildReport, error)) error {
	m.watched = true
	report, err := m.Build(ctx, opts)
	onReport(report, err)
	return nil
}

// mockInspectService implements driving.InspectService for testing.
type mockInspectService struct {
	report  *driving.InspectReport
	hits    []driving.QueryHit
	err     error
	query   string
	keyword bool
	k       int
}

func (m *mockInspectService) Inspect(context.Context) (*driving.InspectReport, error) {
	return m.report, m.err
}

func (m *mockInspectService) Query(_ context.Context, text string, k int) ([]driving.QueryHit, error) {
	m.query, m.k = text, k
	return m.hits, m.err
}

func (m *mockInspectService) KeywordQuery(_ context.Context, text string, k int) ([]driving.QueryHit, error) {
	m.query, m.k, m.keyword = text, k, true
	return m.hits, m.err
}

// testEnv installs mocks and restores globals on cleanup.
type testEnv struct {
	settings *mockSettingsService
	tools    *mockToolService
	build    *mockBuildService
	inspect  *mockInspectService
	opened   []PipelineOptions
	closed   int
	openErr  error
}

func setupTest() (*testEnv, func()) {
	env := &testEnv{
		settings: newMockSettingsService(),
		tools:    &mockToolService{},
		build:    &mockBuildService{report: &driving.BuildReport{RunID: "run-1"}},
		inspect:  &mockInspectService{report: &driving.InspectReport{Consistent: true}},
	}

	oldSettings, oldTools, oldPipeline, oldHelp := settingsService, toolService, openPipeline, installHelp
	SetServices(Services{
		Settings: env.settings,
		Tools:    env.tools,
		Pipeline: func(_ context.Context, opts PipelineOptions) (*Pipeline, error) {
			env.opened = append(env.opened, opts)
			if env.openErr != nil {
				return nil, env.openErr
			}
			return &Pipeline{
				Build:   env.build,
				Inspect: env.inspect,
				Close: func() error {
					env.closed++
					return nil
				},
			}, nil
		},
		InstallHelp: "apt install poppler-utils djvulibre-bin",
	})

	return env, func() {
		settingsService, toolService, openPipeline, installHelp = oldSettings, oldTools, oldPipeline, oldHelp
		buildForce, buildWatch = false, false
		inspectQuery, inspectTop, inspectKeyword = "", 5, false
		outputDir, verbose = "", false
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

// run executes the root command with args and returns its output.
func run(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
