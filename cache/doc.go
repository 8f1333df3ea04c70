// Package cache defines the caching protocol shared by every domain of the
// backend: the key-value port, the read-through accessor helper, the key
// naming scheme, the TTL tiers and the best-effort write invalidator.
//
// # Protocol
//
// Reads follow the cache-aside pattern. An accessor computes a key with the
// domain's key builders, calls GetOrFetch with the domain's TTL tier, and
// either returns the cached payload or populates the cache from the store:
//
//	brand, err := cache.GetOrFetch(ctx, c, "products_brand_42", cache.TTLBrand,
//		func(ctx context.Context) (*Brand, error) {
//			return loadBrand(ctx, 42)
//		})
//
// Not-found results are never cached; repeated lookups of a nonexistent id
// keep hitting the store. Writes go to the store first and then delete every
// key the write could have made stale, via Invalidator:
//
//	inv.Invalidate(ctx, "products_brand_42", "products_brand_slug_bmw",
//		"products_brand_list")
//
// The next read repopulates the deleted keys. There is no lock spanning the
// store write and the cache delete, so a concurrent reader can briefly
// repopulate a key with pre-write data; the window is bounded by the TTL.
//
// # Keys
//
// Keys are flat strings: an entity-kind prefix, optionally an attribute
// name for disambiguation, and the attribute value, joined by underscores
// ("products_brand_42" by id, "products_brand_slug_bmw" by slug). Search
// derived segments must pass through SanitizeTerm before interpolation.
//
// # Failure semantics
//
// The cache is an optimization over the store, never the system of record.
// Backend failures degrade to misses on reads and to logged no-ops on
// invalidation; no cache error ever reaches a caller of a domain service.
//
// # Backends
//
// Two Cache implementations ship with the module: an in-process sturdyc
// backend (NewMemoryCache) and a Redis backend (NewRedisCache). Both encode
// values with msgpack and support prefix deletion for bulk invalidation.
package cache
