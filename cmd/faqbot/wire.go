package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/faqbot/internal/adapters/driven/ai"
	"github.com/custodia-labs/faqbot/internal/adapters/driven/config/file"
	"github.com/custodia-labs/faqbot/internal/adapters/driven/records/jsonl"
	"github.com/custodia-labs/faqbot/internal/adapters/driven/records/watch"
	filestore "github.com/custodia-labs/faqbot/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/faqbot/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/faqbot/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/faqbot/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/faqbot/internal/adapters/driving/cli"
	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
	"github.com/custodia-labs/faqbot/internal/core/services"
	"github.com/custodia-labs/faqbot/internal/logger"
)

// envHome overrides the ~/.faqbot directory holding config, prompts and
// the default index location.
const envHome = "FAQBOT_HOME"

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 500 * time.Millisecond

// wiring holds the long-lived adapters shared by every command.
type wiring struct {
	home     string
	settings *services.SettingsService
	prompts  *file.PromptStore
}

// newDependencies wires config, prompts and the per-command factories.
// home may be empty to use ~/.faqbot.
func newDependencies(home string) (*cli.Dependencies, error) {
	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	promptDir := ""
	if home != "" {
		promptDir = filepath.Join(home, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	w := &wiring{
		home:     home,
		settings: services.NewSettingsService(configStore, ai.NewConfigValidator()),
		prompts:  prompts,
	}

	return &cli.Dependencies{
		Settings:    w.settings,
		OpenBuilder: w.openBuilder,
		OpenQuery:   w.openQuery,
		IndexInfo:   w.indexInfo,
		NewWatcher: func(path string) cli.CorpusWatcher {
			return watch.New(path, watchDebounce)
		},
	}, nil
}

// indexStore opens the store selected by index.format.
func (w *wiring) indexStore(settings *domain.AppSettings) (driven.IndexStore, error) {
	dir := settings.Index.Dir
	if dir == "" && w.home != "" {
		dir = filepath.Join(w.home, "index")
	}

	switch settings.Index.Format {
	case domain.IndexFormatSQLite:
		return sqlite.NewIndexStore(dir)
	case domain.IndexFormatFile, "":
		return filestore.NewIndexStore(dir)
	default:
		return nil, fmt.Errorf("%w: unknown index format %q", domain.ErrInvalidInput, settings.Index.Format)
	}
}

func (w *wiring) openBuilder(ctx context.Context, opts cli.BuildOptions) (*cli.Builder, error) {
	settings, err := w.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	store, err := w.indexStore(settings)
	if err != nil {
		return nil, err
	}

	result, err := ai.Init(ctx, settings, w.prompts, ai.InitOptions{Throttle: true})
	if err != nil {
		return nil, err
	}

	corpus := settings.Corpus.Path
	if opts.CorpusPath != "" {
		corpus = opts.CorpusPath
	}

	return &cli.Builder{
		Service:    services.NewIndexBuilder(result.EmbeddingService, jsonl.New(corpus), store, settings.Build.BatchSize),
		CorpusPath: corpus,
		Close:      result.Close,
	}, nil
}

func (w *wiring) openQuery(ctx context.Context, opts cli.QueryOptions) (*cli.QueryServices, error) {
	settings, err := w.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	var idx *domain.Index
	if opts.CorpusPath == "" {
		idx, err = w.loadIndex(ctx, settings)
		if err != nil {
			return nil, err
		}
	}

	fallback, err := w.prompts.Load(driven.PromptFallbackContext)
	if err != nil {
		return nil, fmt.Errorf("loading fallback context: %w", err)
	}

	result, err := ai.Init(ctx, settings, w.prompts, ai.InitOptions{RequireLLM: opts.RequireLLM})
	if err != nil {
		return nil, err
	}

	if idx == nil {
		idx, err = buildInMemory(ctx, result.EmbeddingService, opts.CorpusPath, settings.Build.BatchSize)
		if err != nil {
			result.Close()
			return nil, err
		}
	}

	retrieval, err := services.NewRetrievalEngine(idx, flat.New(idx), result.EmbeddingService, services.RetrievalConfig{
		TopK:         settings.Retrieval.TopK,
		Threshold:    settings.Retrieval.Threshold,
		FallbackText: fallback,
	})
	if err != nil {
		result.Close()
		return nil, err
	}

	qs := &cli.QueryServices{
		Retrieval: retrieval,
		Warnings:  result.Warnings,
		Close:     result.Close,
	}
	if model := idx.Manifest().Model; model != "" && model != result.EmbeddingService.ModelName() {
		qs.Warnings = append(qs.Warnings, fmt.Sprintf(
			"index was built with %s but the embedder is %s; run 'faqbot build'",
			model, result.EmbeddingService.ModelName()))
	}
	if result.Generator != nil {
		qs.Answer = services.NewAnswerPipeline(retrieval, result.Generator)
	}
	return qs, nil
}

// buildInMemory embeds corpus into an index that lives only as long as
// the command.
func buildInMemory(
	ctx context.Context, embedder driven.EmbeddingService, corpus string, batchSize int,
) (*domain.Index, error) {
	store := memory.NewIndexStore()
	if _, err := services.NewIndexBuilder(embedder, jsonl.New(corpus), store, batchSize).Rebuild(ctx); err != nil {
		return nil, fmt.Errorf("indexing %s in memory: %w", corpus, err)
	}
	return store.Load(ctx)
}

func (w *wiring) indexInfo(ctx context.Context) (domain.IndexInfo, error) {
	settings, err := w.settings.Get()
	if err != nil {
		return domain.IndexInfo{}, fmt.Errorf("failed to get settings: %w", err)
	}

	idx, err := w.loadIndex(ctx, settings)
	if err != nil {
		return domain.IndexInfo{}, err
	}
	return domain.IndexInfo{
		Rows:       idx.Len(),
		Dimensions: idx.Dimensions(),
		Manifest:   idx.Manifest(),
	}, nil
}

func (w *wiring) loadIndex(ctx context.Context, settings *domain.AppSettings) (*domain.Index, error) {
	store, err := w.indexStore(settings)
	if err != nil {
		return nil, err
	}

	idx, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading index from %s: %w", store.Location(), err)
	}
	logger.Debug("Loaded %d rows from %s", idx.Len(), store.Location())
	return idx, nil
}
