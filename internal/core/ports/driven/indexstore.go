package driven

import (
	"context"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

// IndexStore persists an index as vectors plus row-aligned metadata.
type IndexStore interface {
	// Save writes the index and manifest, atomically replacing any
	// previous version at the same location.
	Save(ctx context.Context, index *domain.Index, manifest domain.IndexManifest) error

	// Load reads and validates the current index.
	// Returns domain.ErrIndexNotBuilt if nothing was saved yet and
	// domain.ErrIndexLoad if artifacts are missing or inconsistent.
	Load(ctx context.Context) (*domain.Index, error)

	// Location describes where the index lives, for display.
	Location() string
}
