// Package cache provides the byte caches behind datasource snapshots and
// memoized materializations.
//
// # Backends
//
//   - [NullCache] stores nothing; every Get is a miss.
//   - [MemoryCache] keeps entries in process, for tests and single editors.
//   - [FileCache] keeps entries on disk, for the CLI.
//   - [RedisCache] shares entries between server instances.
//
// All backends treat a zero TTL as "no expiry".
//
// # Keys
//
// Keys are built by a [Keyer] so that every component agrees on their
// shape. A [ScopedKeyer] prefixes keys to separate tenants or pages:
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "page:landing:")
//	key := k.SnapshotKey("products")
//
// # Observability
//
// [Observe] wraps a cache so hits, misses and writes reach the hooks
// registered in pkg/observability.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value cache.
type Cache interface {
	// Get returns the value for key. A miss is reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// NullCache never stores anything. It is used when caching is disabled.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }
