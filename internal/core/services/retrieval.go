package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
	"github.com/custodia-labs/faqbot/internal/core/ports/driving"
	"github.com/custodia-labs/faqbot/internal/logger"
)

// Ensure RetrievalEngine implements the interface.
var _ driving.RetrievalService = (*RetrievalEngine)(nil)

// RetrievalConfig holds the query-time policy of a RetrievalEngine.
type RetrievalConfig struct {
	// TopK is the default number of nearest rows considered.
	TopK int

	// Threshold is the default minimum similarity for a row to be used.
	Threshold float64

	// FallbackText is the context used when nothing clears the threshold.
	FallbackText string
}

// RetrievalEngine embeds a query, searches a loaded index, applies the
// similarity gate and assembles context. The index it wraps is never
// modified, so one engine can serve concurrent queries.
type RetrievalEngine struct {
	index    *domain.Index
	vectors  driven.VectorIndex
	embedder driven.EmbeddingService
	cfg      RetrievalConfig
}

// NewRetrievalEngine creates an engine over index. vectors must search the
// same rows as index, typically flat.New(index).
func NewRetrievalEngine(
	index *domain.Index,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	cfg RetrievalConfig,
) (*RetrievalEngine, error) {
	if index == nil || vectors == nil {
		return nil, fmt.Errorf("%w: index is required", domain.ErrInvalidInput)
	}
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if vectors.Len() != index.Len() {
		return nil, fmt.Errorf("%w: vector index has %d rows, metadata has %d",
			domain.ErrIndexLoad, vectors.Len(), index.Len())
	}
	if err := (domain.RetrievalOptions{TopK: cfg.TopK, Threshold: cfg.Threshold}).Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.FallbackText) == "" {
		return nil, fmt.Errorf("%w: fallback text is required", domain.ErrInvalidInput)
	}

	return &RetrievalEngine{
		index:    index,
		vectors:  vectors,
		embedder: embedder,
		cfg:      cfg,
	}, nil
}

// Defaults returns the configured retrieval options.
func (e *RetrievalEngine) Defaults() domain.RetrievalOptions {
	return domain.RetrievalOptions{TopK: e.cfg.TopK, Threshold: e.cfg.Threshold}
}

// Retrieve runs the query with the configured top-k and threshold.
func (e *RetrievalEngine) Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error) {
	return e.RetrieveWith(ctx, query, e.Defaults())
}

// RetrieveWith runs the query with explicit options.
// The result always holds at least one context item; finding nothing
// relevant yields the fallback item rather than an error.
func (e *RetrievalEngine) RetrieveWith(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) (*domain.RetrievalResult, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q (k=%d, threshold=%.3f)", query, opts.TopK, opts.Threshold)

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		logger.Debug("Empty query, using fallback context")
		return e.fallback(query), nil
	}

	// Embed
	raw, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbedding, err)
	}
	queryVec, err := domain.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedded: %d dimensions", len(queryVec))

	if e.index.Len() == 0 {
		logger.Debug("Index is empty, using fallback context")
		return e.fallback(query), nil
	}
	if len(queryVec) != e.index.Dimensions() {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(queryVec), e.index.Dimensions())
	}

	// Search
	hits, err := e.vectors.Search(ctx, queryVec, opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	logger.Debug("Top-%d hits: %d", opts.TopK, len(hits))

	// Gate
	survivors := make([]domain.SearchHit, 0, len(hits))
	for _, hit := range hits {
		if hit.Score >= opts.Threshold {
			survivors = append(survivors, hit)
		} else {
			logger.Debug("Row %d dropped (%.4f < %.4f)", hit.Row, hit.Score, opts.Threshold)
		}
	}
	if len(survivors) == 0 {
		logger.Info("No result cleared threshold %.3f, using fallback context", opts.Threshold)
		return e.fallback(query), nil
	}

	// Assemble
	result := &domain.RetrievalResult{
		Query:    query,
		Contexts: make([]domain.ContextItem, len(survivors)),
		Scores:   make([]float64, len(survivors)),
		State:    domain.QueryStateMatched,
	}
	for i, hit := range survivors {
		record := e.index.Record(hit.Row)
		result.Contexts[i] = domain.ContextItem{
			Text:     record.ContextText(),
			RecordID: record.ID,
			Row:      hit.Row,
			Score:    hit.Score,
		}
		result.Scores[i] = hit.Score
	}
	logger.Info("Matched %d record(s), best score %.4f", len(survivors), survivors[0].Score)

	return result, nil
}

// Info summarises the loaded index.
func (e *RetrievalEngine) Info() domain.IndexInfo {
	return domain.IndexInfo{
		Rows:       e.index.Len(),
		Dimensions: e.index.Dimensions(),
		Manifest:   e.index.Manifest(),
	}
}

// Lookup returns the first record with the given id.
func (e *RetrievalEngine) Lookup(id string) (*domain.Record, error) {
	for i := 0; i < e.index.Len(); i++ {
		if r := e.index.Record(i); r.ID == id {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("record %q: %w", id, domain.ErrNotFound)
}

func (e *RetrievalEngine) fallback(query string) *domain.RetrievalResult {
	return &domain.RetrievalResult{
		Query:        query,
		Contexts:     []domain.ContextItem{domain.NewFallbackItem(e.cfg.FallbackText)},
		UsedFallback: true,
		Scores:       []float64{},
		State:        domain.QueryStateFallback,
	}
}
