// Package cache stores derived choropleth documents between runs.
//
// A derived document depends only on the dataset version, the boundary
// version and the rendering options, so it can be cached under a key built
// from those three (see [Keyer]). Backends:
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for several server instances
//   - [MongoCache]: shared cache with server-side TTL expiry
//   - [NullCache]: caching disabled
//
// Remote backends are wrapped in a circuit breaker. A tripped breaker turns
// cache calls into fast errors, and callers treat cache errors as misses.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	// TTLDocument is the lifetime of a cached descriptor document.
	TTLDocument = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
