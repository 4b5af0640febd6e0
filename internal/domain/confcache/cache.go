// Package confcache caches the active weights config for a short validity
// window. Recommendations record which version they used, so staleness of at
// most one interval is acceptable.
package confcache

import (
	"context"
	"sync"
	"time"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// Default cache configuration constants.
const (
	defaultTTL = 5 * time.Second
)

// Loader fetches the active config from the durable store.
type Loader func(ctx context.Context) (*model.WeightsConfig, error)

// Cache serves the active weights config, refreshing from the loader once
// the cached copy expires. Safe for concurrent use.
type Cache struct {
	loader Loader
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	cached    *model.WeightsConfig
	expiresAt time.Time
}

// New creates a cache around loader with configuration options.
func New(loader Loader, opts ...Option) *Cache {
	c := &Cache{
		loader: loader,
		ttl:    defaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Active returns the active config, from cache when fresh. A load failure
// with a previously cached copy returns the stale copy rather than failing
// the read.
func (c *Cache) Active(ctx context.Context) (*model.WeightsConfig, error) {
	c.mu.RLock()
	if c.cached != nil && c.now().Before(c.expiresAt) {
		cfg := c.cached
		c.mu.RUnlock()
		return cfg, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another writer may have refreshed while we waited for the lock.
	if c.cached != nil && c.now().Before(c.expiresAt) {
		return c.cached, nil
	}

	cfg, err := c.loader(ctx)
	if err != nil {
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, err
	}
	c.cached = cfg
	c.expiresAt = c.now().Add(c.ttl)
	return cfg, nil
}

// Invalidate drops the cached copy so the next read hits the loader.
// Called after config writes so admins observe their own changes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
	c.expiresAt = time.Time{}
}
