package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/driftboard/backend/internal/models"
	"github.com/driftboard/backend/internal/store"
)

// DefaultMaxBatch bounds how many uncached profiles one hydration pass will
// fetch, protecting against unbounded fan-out when a page of posts references
// many distinct authors.
const DefaultMaxBatch = 30

// Loader reads a set of profiles from the backing store. ids is always at
// most store.MaxInValues long; missing ids are simply absent in the result.
type Loader interface {
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.UserProfile, error)
}

// Cache is a session-lifetime user profile cache used to hydrate author and
// commenter display data. It never evicts and never re-fetches a cached id;
// staleness is an accepted tradeoff for rarely edited display data.
type Cache struct {
	mu      sync.Mutex
	loader  Loader
	entries map[string]models.UserProfile
}

// NewCache creates an empty cache backed by loader.
func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:  loader,
		entries: make(map[string]models.UserProfile),
	}
}

// Resolve ensures profiles for the requested ids are cached and returns a
// snapshot of the whole cache. Only ids not already cached are fetched; the
// uncached subset is truncated to maxBatch and read in sub-batches of at most
// store.MaxInValues identifiers per backend call. Merges are last-write-wins
// per id, so concurrent hydration calls are safe.
func (c *Cache) Resolve(ctx context.Context, ids []string, maxBatch int) (map[string]models.UserProfile, error) {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}

	c.mu.Lock()
	missing := make([]string, 0, len(ids))
	requested := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := requested[id]; dup {
			continue
		}
		requested[id] = struct{}{}
		if _, ok := c.entries[id]; !ok {
			missing = append(missing, id)
		}
	}
	c.mu.Unlock()

	if len(missing) > maxBatch {
		missing = missing[:maxBatch]
	}

	for _, batch := range store.BatchIDs(missing, store.MaxInValues) {
		profiles, err := c.loader.GetUsersByIDs(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		}

		c.mu.Lock()
		for _, p := range profiles {
			c.entries[p.ID] = p
		}
		c.mu.Unlock()
	}

	return c.Snapshot(), nil
}

// Lookup returns a single cached profile without fetching.
func (c *Cache) Lookup(id string) (models.UserProfile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[id]
	return p, ok
}

// Snapshot returns a copy of the full cache contents.
func (c *Cache) Snapshot() map[string]models.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]models.UserProfile, len(c.entries))
	for id, p := range c.entries {
		out[id] = p
	}
	return out
}

// Len reports how many profiles are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
