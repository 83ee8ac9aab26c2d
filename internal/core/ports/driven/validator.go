package driven

import (
	"context"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

// AIConfigValidator checks provider settings by connecting to them.
// Unconfigured settings are not an error; the caller decides whether
// a provider is required.
type AIConfigValidator interface {
	// ValidateEmbedding creates the embedding service described by config
	// and pings it within ctx.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error

	// ValidateLLM creates the LLM service described by config and pings it within ctx.
	ValidateLLM(ctx context.Context, config *domain.LLMSettings) error
}
