// Package cache provides a small generic key-value cache used by the resource
// server to soften hot token lookups. Two implementations ship: an in-memory
// cache for single-instance hosts and a rueidis-backed cache with client-side
// caching for multi-instance deployments.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheUnavailable indicates the cache backend is unavailable.
	ErrCacheUnavailable = errors.New("cache: backend unavailable")

	// ErrInvalidValue indicates the cached value cannot be decoded.
	ErrInvalidValue = errors.New("cache: invalid value")
)

// Cache defines the primitive operations for a key-value cache.
type Cache[T any] interface {
	// Get retrieves a single value. Returns ErrCacheMiss if the key does
	// not exist or has expired.
	Get(ctx context.Context, key string) (T, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key string, value T, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Close releases the backend connection.
	Close() error

	// Health checks whether the backend is reachable.
	Health(ctx context.Context) error
}

// FetchFunc loads a value from the source of truth on cache miss.
type FetchFunc[T any] func(ctx context.Context, key string) (T, error)

// CacheWithFetch is implemented by caches that provide an optimized
// cache-aside operation with stampede protection. Callers should prefer it
// over the generic GetWithFetch helper, via type assertion.
type CacheWithFetch[T any] interface {
	Cache[T]

	// GetWithFetch retrieves a value using a cache-aside pattern. On miss,
	// fetch is called and the result stored automatically.
	GetWithFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc[T]) (T, error)
}

// GetWithFetch is a generic cache-aside helper for any Cache implementation.
// On miss it calls fetch, stores the result, and returns it. Fetch errors
// pass through untouched; Set failures are ignored (the value is still
// returned).
func GetWithFetch[T any](
	ctx context.Context,
	c Cache[T],
	key string,
	ttl time.Duration,
	fetch FetchFunc[T],
) (T, error) {
	if c, ok := c.(CacheWithFetch[T]); ok {
		return c.GetWithFetch(ctx, key, ttl, fetch)
	}

	if value, err := c.Get(ctx, key); err == nil {
		return value, nil
	}

	value, err := fetch(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}

	_ = c.Set(ctx, key, value, ttl)
	return value, nil
}
