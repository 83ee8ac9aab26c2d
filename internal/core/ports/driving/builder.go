package driving

import (
	"context"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

// IndexBuilderService turns a corpus into a persisted vector index.
type IndexBuilderService interface {
	// Build embeds every record and returns the in-memory index.
	// Nothing is persisted.
	Build(ctx context.Context, records []domain.Record) (*domain.Index, error)

	// Rebuild reads the configured corpus, builds the index and saves it,
	// replacing any previous version.
	Rebuild(ctx context.Context) (*domain.BuildReport, error)
}
