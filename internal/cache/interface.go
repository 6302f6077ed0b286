// Package cache holds short-lived handshake state between the redirect to a
// provider and the callback from it: OAuth1 request-token secrets and OAuth2
// CSRF state values. Entries expire on their own, so an abandoned handshake
// leaves nothing behind.
package cache

import (
	"context"
	"time"
)

// Cache defines the primitive operations for a key-value cache.
// T is the type of value stored in the cache (e.g. string or a struct).
type Cache[T any] interface {
	// Get retrieves a single value from cache.
	// Returns ErrCacheMiss if the key does not exist or has expired.
	Get(ctx context.Context, key string) (T, error)

	// Set stores a single value in cache with TTL
	Set(ctx context.Context, key string, value T, ttl time.Duration) error

	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error

	// Close closes the cache connection
	Close() error

	// Health checks if the cache is healthy
	Health(ctx context.Context) error
}
