// Package cache provides a small TTL cache used to absorb spreadsheet
// refresh storms against the /api/excel/data endpoint, so a wall of
// identical refreshes does not fan out into upstream Salla API calls.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache: key not found")
)

// Cache defines the primitive operations for a key-value cache.
// T is the type of value stored in the cache.
type Cache[T any] interface {
	// Get retrieves a single value from cache.
	// Returns ErrCacheMiss if the key does not exist or has expired.
	Get(ctx context.Context, key string) (T, error)

	// Set stores a single value in cache with TTL
	Set(ctx context.Context, key string, value T, ttl time.Duration) error

	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error

	// Purge drops expired entries. Called periodically by the lifecycle
	// manager; Get already ignores expired entries, so this only bounds
	// memory.
	Purge()
}

// GetWithFetch is a cache-aside helper: on miss it calls fetchFunc, stores
// the result, and returns it. No stampede protection; concurrent misses may
// each call fetchFunc once.
func GetWithFetch[T any](
	ctx context.Context,
	c Cache[T],
	key string,
	ttl time.Duration,
	fetchFunc func(ctx context.Context, key string) (T, error),
) (T, error) {
	if value, err := c.Get(ctx, key); err == nil {
		return value, nil
	}

	value, err := fetchFunc(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}

	_ = c.Set(ctx, key, value, ttl)
	return value, nil
}
