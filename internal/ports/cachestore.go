package ports

import "asanaid/internal/domain"

// CacheStore persists the counter cache between runs.
type CacheStore interface {
	// Load returns the persisted cache, or an empty cache if no prior
	// state exists.
	Load() (*domain.CacheRoot, error)

	// Save writes the cache so that a concurrent reader never observes a
	// partially written state.
	Save(cache *domain.CacheRoot) error
}
