package flat

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index scans all rows of a domain.Index for each query.
type Index struct {
	source *domain.Index
}

// New creates a flat index over the rows of idx.
func New(idx *domain.Index) *Index {
	return &Index{source: idx}
}

// Search returns the k rows with the highest dot product against query.
// Ties are ordered by ascending row. Fewer than k rows returns all of them.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrInvalidInput, k)
	}
	n := x.source.Len()
	if n == 0 {
		return []domain.SearchHit{}, nil
	}
	if len(query) != x.source.Dimensions() {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), x.source.Dimensions())
	}

	hits := make([]domain.SearchHit, n)
	for row := 0; row < n; row++ {
		if row%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		hits[row] = domain.SearchHit{Row: row, Score: domain.Dot(query, x.source.Vector(row))}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	if k > n {
		k = n
	}
	return hits[:k:k], nil
}

// Len returns the number of rows.
func (x *Index) Len() int {
	return x.source.Len()
}

// Dimensions returns the vector dimensionality.
func (x *Index) Dimensions() int {
	return x.source.Dimensions()
}

// Close is a no-op; the rows belong to the domain index.
func (x *Index) Close() error {
	return nil
}
