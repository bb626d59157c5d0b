package ports

import (
	"context"
	"time"
)

// ResultStore is the optional durable backing for the task cache.
// Both calls are individually fail-soft at the call site: an error on Get
// degrades to a cache miss, an error on Set skips caching. Neither may fail
// the computation whose result is being cached.
type ResultStore interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}
