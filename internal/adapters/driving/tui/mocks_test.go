package tui

import (
	"context"
	"fmt"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

type mockRetrievalService struct {
	info domain.IndexInfo
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string) (*domain.RetrievalResult, error) {
	return &domain.RetrievalResult{Query: query}, nil
}

func (m *mockRetrievalService) RetrieveWith(
	_ context.Context, query string, _ domain.RetrievalOptions,
) (*domain.RetrievalResult, error) {
	return &domain.RetrievalResult{Query: query}, nil
}

func (m *mockRetrievalService) Defaults() domain.RetrievalOptions {
	return domain.RetrievalOptions{TopK: domain.DefaultTopK, Threshold: domain.DefaultThreshold}
}

func (m *mockRetrievalService) Info() domain.IndexInfo { return m.info }

func (m *mockRetrievalService) Lookup(id string) (*domain.Record, error) {
	return nil, fmt.Errorf("record %q: %w", id, domain.ErrNotFound)
}

type mockAnswerService struct {
	answer *domain.Answer
	err    error
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, _ domain.RetrievalOptions) (*domain.Answer, error) {
	return m.answer, m.err
}
