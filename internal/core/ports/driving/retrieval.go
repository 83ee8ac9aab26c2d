package driving

import (
	"context"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

// RetrievalService finds context for a query in a loaded index.
type RetrievalService interface {
	// Retrieve runs the query with the configured top-k and threshold.
	Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error)

	// RetrieveWith runs the query with explicit options.
	RetrieveWith(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.RetrievalResult, error)

	// Defaults returns the configured retrieval options.
	Defaults() domain.RetrievalOptions

	// Info summarises the loaded index.
	Info() domain.IndexInfo

	// Lookup returns the first record with the given id.
	// Returns domain.ErrNotFound if no row has that id.
	Lookup(id string) (*domain.Record, error)
}
