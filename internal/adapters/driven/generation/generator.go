// Package generation adapts a chat-capable LLM into the answer generator
// used by the ask pipeline.
package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
)

// Ensure ContextGenerator implements the interface.
var _ driven.Generator = (*ContextGenerator)(nil)

// contextSeparator sits between context items in the user message.
const contextSeparator = "\n\n---\n\n"

// DefaultMaxTokens caps the length of a generated answer.
const DefaultMaxTokens = 1024

// ContextGenerator answers a query strictly from supplied context.
type ContextGenerator struct {
	llm       driven.LLMService
	prompts   driven.PromptStore
	maxTokens int
}

// NewContextGenerator creates a generator. prompts supplies the system
// instruction and may not be nil.
func NewContextGenerator(llm driven.LLMService, prompts driven.PromptStore) (*ContextGenerator, error) {
	if llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if prompts == nil {
		return nil, fmt.Errorf("%w: prompt store is required", domain.ErrInvalidInput)
	}
	return &ContextGenerator{llm: llm, prompts: prompts, maxTokens: DefaultMaxTokens}, nil
}

// Generate returns the refusal text without calling the model when there
// is no context. LLM errors are returned unchanged.
func (g *ContextGenerator) Generate(ctx context.Context, query string, contexts []string) (string, error) {
	if len(contexts) == 0 {
		return domain.RefusalText, nil
	}

	system, err := g.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", fmt.Errorf("load %s prompt: %w", driven.PromptAnswerSystem, err)
	}

	reply, err := g.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: UserMessage(query, contexts)},
	}, driven.ChatOptions{MaxTokens: g.maxTokens})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// UserMessage formats the context block and question sent to the model.
func UserMessage(query string, contexts []string) string {
	return "CONTEXT:\n" + strings.Join(contexts, contextSeparator) + "\n\nQUESTION:\n" + query
}
