package driven

import (
	"context"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

// RecordSource yields the parsed corpus in order.
type RecordSource interface {
	// Records returns every record in source order.
	// Decoding failures wrap domain.ErrCorpusValidation.
	Records(ctx context.Context) ([]domain.Record, error)

	// Location describes the source, for manifests and logs.
	Location() string
}
