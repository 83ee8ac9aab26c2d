// Package ratelimit throttles calls to an embedding service with a token bucket.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
)

// Ensure Limited implements the interface.
var _ driven.EmbeddingService = (*Limited)(nil)

// Config holds the token bucket parameters.
type Config struct {
	// RequestsPerSecond is the sustained call rate. Zero or less disables limiting.
	RequestsPerSecond float64

	// Burst is the bucket size (minimum 1).
	Burst int
}

// Limited wraps an EmbeddingService so every Embed and EmbedBatch call
// first takes a token from the bucket. Ping is not limited.
type Limited struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap returns inner unchanged when limiting is disabled, otherwise a
// Limited decorator around it.
func Wrap(inner driven.EmbeddingService, cfg Config) driven.EmbeddingService {
	if inner == nil || cfg.RequestsPerSecond <= 0 {
		return inner
	}
	return New(inner, cfg)
}

// New creates a Limited decorator. A non-positive rate is treated as unlimited.
func New(inner driven.EmbeddingService, cfg Config) *Limited {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Limited{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Embed waits for a token, then delegates.
func (l *Limited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return l.inner.Embed(ctx, text)
}

// EmbedBatch waits for a single token per batch, then delegates.
func (l *Limited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return l.inner.EmbedBatch(ctx, texts)
}

func (l *Limited) Dimensions() int { return l.inner.Dimensions() }

func (l *Limited) ModelName() string { return l.inner.ModelName() }

func (l *Limited) Ping(ctx context.Context) error { return l.inner.Ping(ctx) }

func (l *Limited) Close() error { return l.inner.Close() }
