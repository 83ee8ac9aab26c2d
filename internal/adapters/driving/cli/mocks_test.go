package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driving"
)

var (
	_ driving.SettingsService     = (*mockSettingsService)(nil)
	_ driving.RetrievalService    = (*mockRetrievalService)(nil)
	_ driving.AnswerService       = (*mockAnswerService)(nil)
	_ driving.IndexBuilderService = (*mockBuilder)(nil)
	_ CorpusWatcher               = (*fakeWatcher)(nil)
)

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings    domain.AppSettings
	getErr      error
	validateErr error
	pingErr     error

	embeddingValidated bool
	llmValidated       bool
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetRetrieval(topK int, threshold float64) error {
	if err := (domain.RetrievalOptions{TopK: topK, Threshold: threshold}).Validate(); err != nil {
		return err
	}
	m.settings.Retrieval = domain.RetrievalSettings{TopK: topK, Threshold: threshold}
	return nil
}

func (m *mockSettingsService) SetIndex(dir string, format domain.IndexFormat) error {
	if !format.IsValid() {
		return fmt.Errorf("%w: unknown index format %q", domain.ErrInvalidInput, format)
	}
	m.settings.Index = domain.IndexSettings{Dir: dir, Format: format}
	return nil
}

func (m *mockSettingsService) SetCorpusPath(path string) error {
	m.settings.Corpus.Path = path
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig(_ context.Context) error {
	m.embeddingValidated = true
	return m.pingErr
}

func (m *mockSettingsService) ValidateLLMConfig(_ context.Context) error {
	m.llmValidated = true
	return m.pingErr
}

// mockRetrievalService returns a canned result and records the options used.
type mockRetrievalService struct {
	result   *domain.RetrievalResult
	info     domain.IndexInfo
	err      error
	lastOpts domain.RetrievalOptions
}

func (m *mockRetrievalService) Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error) {
	return m.RetrieveWith(ctx, query, m.Defaults())
}

func (m *mockRetrievalService) RetrieveWith(
	_ context.Context, _ string, opts domain.RetrievalOptions,
) (*domain.RetrievalResult, error) {
	m.lastOpts = opts
	return m.result, m.err
}

func (m *mockRetrievalService) Defaults() domain.RetrievalOptions {
	return domain.RetrievalOptions{TopK: domain.DefaultTopK, Threshold: domain.DefaultThreshold}
}

func (m *mockRetrievalService) Info() domain.IndexInfo { return m.info }

func (m *mockRetrievalService) Lookup(id string) (*domain.Record, error) {
	return nil, fmt.Errorf("record %q: %w", id, domain.ErrNotFound)
}

// mockAnswerService returns a canned answer.
type mockAnswerService struct {
	answer   *domain.Answer
	err      error
	lastOpts domain.RetrievalOptions
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, opts domain.RetrievalOptions) (*domain.Answer, error) {
	m.lastOpts = opts
	return m.answer, m.err
}

// mockBuilder counts rebuilds and fails the ones listed in errs.
type mockBuilder struct {
	report *domain.BuildReport
	errs   map[int]error
	calls  int
}

func (m *mockBuilder) Build(_ context.Context, _ []domain.Record) (*domain.Index, error) {
	return nil, domain.ErrEmbeddingUnavailable
}

func (m *mockBuilder) Rebuild(_ context.Context) (*domain.BuildReport, error) {
	m.calls++
	if err := m.errs[m.calls]; err != nil {
		return nil, err
	}
	return m.report, nil
}

// fakeWatcher replays a fixed list of changes and then closes.
type fakeWatcher struct {
	changes  []string
	watchErr error
	closed   bool
}

func (w *fakeWatcher) Watch(_ context.Context) (<-chan string, error) {
	if w.watchErr != nil {
		return nil, w.watchErr
	}
	ch := make(chan string, len(w.changes))
	for _, c := range w.changes {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (w *fakeWatcher) Close() error {
	w.closed = true
	return nil
}

// setupTestDependencies installs deps for one test and restores the
// previous ones afterwards.
func setupTestDependencies(t *testing.T, d *Dependencies) {
	t.Helper()
	prev := deps
	SetDependencies(d)
	t.Cleanup(func() { SetDependencies(prev) })
}

// queryDependencies wires retrieval and answer mocks behind OpenQuery.
func queryDependencies(retrieval *mockRetrievalService, answer *mockAnswerService) *Dependencies {
	return &Dependencies{
		Settings: newMockSettingsService(),
		OpenQuery: func(_ context.Context, opts QueryOptions) (*QueryServices, error) {
			services := &QueryServices{Retrieval: retrieval}
			if answer != nil {
				services.Answer = answer
			} else if opts.RequireLLM {
				return nil, fmt.Errorf("%w: no LLM provider configured", domain.ErrLLMUnavailable)
			}
			return services, nil
		},
	}
}

// executeCommand runs rootCmd with args and stdin and returns stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return executeCommandContext(t, context.Background(), stdin, args...)
}

func executeCommandContext(t *testing.T, ctx context.Context, stdin string, args ...string) (string, string, error) {
	t.Helper()

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	// Cobra hands the root context to a subcommand only while the
	// subcommand has none, and it keeps the one from the previous run.
	setContexts(rootCmd, ctx)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// setContexts installs ctx on every command in the tree. Package-level
// commands otherwise keep the context of whichever test ran them first,
// and a cancelled context would never reach the command under test.
func setContexts(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, c := range cmd.Commands() {
		setContexts(c, ctx)
	}
}

// resetFlags restores every flag in the command tree to its default so
// tests do not leak flag state into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
