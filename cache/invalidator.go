package cache

import (
	"context"

	"go.uber.org/zap"
)

// Invalidator fans out cache deletions after a store write. It never
// returns an error: a failed deletion is logged and swallowed, because a
// stale entry is bounded by its TTL while a failed write response is not.
type Invalidator struct {
	cache Cache
	log   *zap.Logger
}

// NewInvalidator wires an invalidator to a cache backend. A nil logger
// disables logging.
func NewInvalidator(c Cache, log *zap.Logger) *Invalidator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Invalidator{cache: c, log: log}
}

// Invalidate deletes every key that could hold data made stale by the
// write that just completed. Callers enumerate the full fan-out: the
// entity's own keys, its parent's aggregate keys and any list keys it
// appears in.
func (i *Invalidator) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := i.cache.DeleteMany(ctx, keys); err != nil {
		i.log.Warn("cache invalidation failed, stale entries expire by TTL",
			zap.Strings("keys", keys),
			zap.Error(err))
		return
	}
	i.log.Debug("cache invalidated", zap.Strings("keys", keys))
}

// InvalidatePattern deletes every key under the given prefix. Used by bulk
// operations that cannot enumerate the affected records.
func (i *Invalidator) InvalidatePattern(ctx context.Context, prefixes ...string) {
	for _, p := range prefixes {
		if err := i.cache.DeletePattern(ctx, p); err != nil {
			i.log.Warn("cache pattern invalidation failed, stale entries expire by TTL",
				zap.String("prefix", p),
				zap.Error(err))
		}
	}
}
