package driven

import (
	"context"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

// VectorIndex provides top-k similarity search over a loaded index.
// Implementations are read-only after construction and safe for
// concurrent use.
type VectorIndex interface {
	// Search scores the query against the index and returns at most k hits,
	// ordered by similarity descending, ties broken by ascending row.
	// The query must already be unit-normalised.
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error)

	// Len returns the number of indexed rows.
	Len() int

	// Dimensions returns the vector dimensionality (0 when empty).
	Dimensions() int

	// Close releases resources.
	Close() error
}
