package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driving"
)

var (
	_ driving.RetrievalService = (*mockRetrievalService)(nil)
	_ driving.AnswerService    = (*mockAnswerService)(nil)
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	result   *domain.RetrievalResult
	records  map[string]domain.Record
	info     domain.IndexInfo
	err      error
	lastOpts domain.RetrievalOptions
}

func (m *mockRetrievalService) Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error) {
	return m.RetrieveWith(ctx, query, m.Defaults())
}

func (m *mockRetrievalService) RetrieveWith(
	_ context.Context,
	_ string,
	opts domain.RetrievalOptions,
) (*domain.RetrievalResult, error) {
	m.lastOpts = opts
	return m.result, m.err
}

func (m *mockRetrievalService) Defaults() domain.RetrievalOptions {
	return domain.RetrievalOptions{TopK: domain.DefaultTopK, Threshold: domain.DefaultThreshold}
}

func (m *mockRetrievalService) Info() domain.IndexInfo { return m.info }

func (m *mockRetrievalService) Lookup(id string) (*domain.Record, error) {
	if r, ok := m.records[id]; ok {
		return &r, nil
	}
	return nil, fmt.Errorf("record %q: %w", id, domain.ErrNotFound)
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	err    error
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, _ domain.RetrievalOptions) (*domain.Answer, error) {
	return m.answer, m.err
}
