// Package confcache caches the active weights config for a short validity
// window.
package confcache

import "time"

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithTTL sets the cache validity window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}
