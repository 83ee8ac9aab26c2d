package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

func newTestPipeline(t *testing.T, gen *stubGenerator) *AnswerPipeline {
	t.Helper()
	records, embedder := scoredCorpus()
	engine := newTestEngine(t, buildTestIndex(t, embedder, records), embedder)
	if gen == nil {
		return NewAnswerPipeline(engine, nil)
	}
	return NewAnswerPipeline(engine, gen)
}

func TestAsk_PassesContextsInOrder(t *testing.T) {
	gen := &stubGenerator{reply: "It works."}
	pipeline := newTestPipeline(t, gen)

	answer, err := pipeline.Ask(context.Background(), "q", domain.RetrievalOptions{TopK: 2, Threshold: 0.5})
	require.NoError(t, err)

	assert.Equal(t, "It works.", answer.Text)
	assert.False(t, answer.UsedFallback)
	assert.Len(t, answer.Similarities, 2)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "q", gen.query)
	require.Len(t, gen.contexts, 2)
	assert.Contains(t, gen.contexts[0], "FAQ ID: r3")
	assert.Contains(t, gen.contexts[1], "FAQ ID: r1")
}

func TestAsk_FallbackContextIsGenerated(t *testing.T) {
	gen := &stubGenerator{reply: "Please contact support."}
	pipeline := newTestPipeline(t, gen)

	answer, err := pipeline.Ask(context.Background(), "q", domain.RetrievalOptions{TopK: 5, Threshold: 1})
	require.NoError(t, err)

	assert.True(t, answer.UsedFallback)
	assert.Empty(t, answer.Similarities)
	assert.Equal(t, []string{testFallback}, gen.contexts)
}

func TestAsk_GenerationErrorUnchanged(t *testing.T) {
	gen := &stubGenerator{err: errStub}
	pipeline := newTestPipeline(t, gen)

	answer, err := pipeline.Ask(context.Background(), "q", domain.DefaultRetrievalOptions())
	assert.Same(t, errStub, err)
	require.NotNil(t, answer)
	assert.Empty(t, answer.Text)
	assert.NotEmpty(t, answer.Contexts)
	assert.Equal(t, 1, gen.calls)
}

func TestAsk_RetrievalErrorSkipsGeneration(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	pipeline := newTestPipeline(t, gen)

	_, err := pipeline.Ask(context.Background(), "q", domain.RetrievalOptions{TopK: 0, Threshold: 0.5})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, gen.calls)
}

func TestAsk_NoGenerator(t *testing.T) {
	pipeline := newTestPipeline(t, nil)

	answer, err := pipeline.Ask(context.Background(), "q", domain.DefaultRetrievalOptions())
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	require.NotNil(t, answer)
	assert.NotEmpty(t, answer.Contexts)
}
