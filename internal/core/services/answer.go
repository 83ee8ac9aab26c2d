package services

import (
	"context"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
	"github.com/custodia-labs/faqbot/internal/core/ports/driving"
	"github.com/custodia-labs/faqbot/internal/logger"
)

// Ensure AnswerPipeline implements the interface.
var _ driving.AnswerService = (*AnswerPipeline)(nil)

// AnswerPipeline retrieves context for a query and generates a reply from it.
type AnswerPipeline struct {
	retrieval driving.RetrievalService
	generator driven.Generator
}

// NewAnswerPipeline creates an answer pipeline.
// generator may be nil, in which case Ask returns domain.ErrLLMUnavailable
// after retrieval.
func NewAnswerPipeline(retrieval driving.RetrievalService, generator driven.Generator) *AnswerPipeline {
	return &AnswerPipeline{
		retrieval: retrieval,
		generator: generator,
	}
}

// Ask runs retrieval and then calls the generator exactly once.
func (p *AnswerPipeline) Ask(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.Answer, error) {
	result, err := p.retrieval.RetrieveWith(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	answer := &domain.Answer{
		Query:        query,
		UsedFallback: result.UsedFallback,
		Similarities: result.Scores,
		Contexts:     result.Contexts,
	}

	if p.generator == nil {
		return answer, domain.ErrLLMUnavailable
	}

	logger.Debug("Generating answer from %d context item(s)", len(result.Contexts))
	text, err := p.generator.Generate(ctx, query, result.Texts())
	if err != nil {
		return answer, err
	}
	answer.Text = text

	return answer, nil
}
