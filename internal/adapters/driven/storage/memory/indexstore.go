package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore holds the last saved index in memory.
// Save replaces the held index in one step, so readers see either the
// old or the new version.
type IndexStore struct {
	mu    sync.RWMutex
	index *domain.Index
	saves int
}

// NewIndexStore creates an empty in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Save keeps the index together with its manifest.
func (s *IndexStore) Save(ctx context.Context, index *domain.Index, manifest domain.IndexManifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if index == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = index.WithManifest(manifest)
	s.saves++
	return nil
}

// Load returns the saved index or domain.ErrIndexNotBuilt.
func (s *IndexStore) Load(_ context.Context) (*domain.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, domain.ErrIndexNotBuilt
	}
	return s.index, nil
}

// Location returns a placeholder location.
func (s *IndexStore) Location() string {
	return "memory"
}

// Saves returns how many times Save succeeded.
func (s *IndexStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
