package driving

import (
	"context"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

// AnswerService answers a query from retrieved context.
type AnswerService interface {
	// Ask retrieves context and hands it to the generator once.
	// On a generation failure the error is returned unchanged together
	// with the partially filled answer, so callers can still report
	// what was retrieved.
	Ask(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.Answer, error)
}
