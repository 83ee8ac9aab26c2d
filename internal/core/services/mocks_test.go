package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

// stubEmbedder returns fixed vectors per text and falls back to
// defaultVec for unknown text.
type stubEmbedder struct {
	vectors    map[string][]float32
	defaultVec []float32
	err        error
	batchErr   error
	short      bool

	mu         sync.Mutex
	calls      int
	batchCalls int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return s.defaultVec, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	s.batchCalls++
	s.mu.Unlock()
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if s.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int              { return len(s.defaultVec) }
func (s *stubEmbedder) ModelName() string            { return "stub" }
func (s *stubEmbedder) Ping(_ context.Context) error { return nil }
func (s *stubEmbedder) Close() error                 { return nil }

// memRecordSource serves records from memory.
type memRecordSource struct {
	records []domain.Record
	err     error
}

func (m *memRecordSource) Records(_ context.Context) ([]domain.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func (m *memRecordSource) Location() string { return "memory://corpus" }

// memIndexStore keeps the last saved index.
type memIndexStore struct {
	index    *domain.Index
	manifest domain.IndexManifest
	saveErr  error
	saves    int
}

func (m *memIndexStore) Save(_ context.Context, idx *domain.Index, manifest domain.IndexManifest) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.index = idx.WithManifest(manifest)
	m.manifest = manifest
	return nil
}

func (m *memIndexStore) Load(_ context.Context) (*domain.Index, error) {
	if m.index == nil {
		return nil, domain.ErrIndexNotBuilt
	}
	return m.index, nil
}

func (m *memIndexStore) Location() string { return "memory://index" }

// stubGenerator records what it was asked and returns a fixed reply.
type stubGenerator struct {
	reply    string
	err      error
	calls    int
	query    string
	contexts []string
}

func (g *stubGenerator) Generate(_ context.Context, query string, contexts []string) (string, error) {
	g.calls++
	g.query = query
	g.contexts = contexts
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

var errStub = errors.New("stub failure")
