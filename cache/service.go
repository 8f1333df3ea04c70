package cache

import (
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache is the key-value port the read-through accessors and write
// invalidators work against. Values are opaque serialized payloads; the
// cache never interprets them. Implementations must be safe for concurrent
// use and must treat every operation as best effort: a backend failure
// surfaces as a miss or a returned error, never as a panic.
type Cache interface {
	// Get returns the payload stored under key and whether it was present.
	// Backend errors are reported as a miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores the payload under key for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteMany removes a batch of keys in one call, delete-if-present.
	DeleteMany(ctx context.Context, keys []string) error

	// DeletePattern removes every key that starts with prefix.
	DeletePattern(ctx context.Context, prefix string) error
}

// FetchFn loads a value from the source of truth on a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// GetOrFetch implements the read-through protocol for a single key:
//
//  1. On a cache hit the decoded payload is returned without touching the
//     store.
//  2. On a miss, fetch runs against the store. A fetch error (including
//     not-found) propagates unchanged and nothing is cached, so repeated
//     lookups of a nonexistent record keep hitting the store.
//  3. A fetched value is stored under key with the given TTL. Encode and
//     Set failures are ignored; the value is still returned.
//
// A payload that fails to decode is treated as a miss and overwritten by
// the next successful fetch.
func GetOrFetch[T any](ctx context.Context, c Cache, key string, ttl time.Duration, fetch FetchFn[T]) (T, error) {
	if b, ok := c.Get(ctx, key); ok {
		var cached T
		if err := msgpack.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if b, err := msgpack.Marshal(v); err == nil {
		_ = c.Set(ctx, key, b, ttl)
	}
	return v, nil
}

// Put stores a value under key with the shared codec, for write paths
// that populate the cache directly instead of waiting for the next read.
func Put[T any](ctx context.Context, c Cache, key string, ttl time.Duration, v T) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, b, ttl)
}
