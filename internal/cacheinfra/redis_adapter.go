package cacheinfra

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig holds the configuration for the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Validate checks if the configuration values are valid.
func (c RedisConfig) Validate() error {
	if c.Addr == "" {
		return &ConfigError{Field: "Addr", Message: "must not be empty"}
	}
	if c.DB < 0 {
		return &ConfigError{Field: "DB", Message: "must be non-negative"}
	}
	return nil
}

// redisCache adapts go-redis to the Cache port. Payloads are stored as raw
// bytes with a per-key TTL; DeletePattern walks the keyspace with SCAN so
// it never blocks the server the way KEYS would.
type redisCache struct {
	rdb *redis.Client
	log *zap.Logger
}

// NewRedisCache creates the Redis cache backend. The connection is lazy;
// use Ping to verify it eagerly.
func NewRedisCache(cfg RedisConfig, log *zap.Logger) (*redisCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &redisCache{rdb: rdb, log: log}, nil
}

// Ping verifies the connection.
func (r *redisCache) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the client.
func (r *redisCache) Close() error {
	return r.rdb.Close()
}

// Get returns the payload stored under key. Backend errors degrade to a
// miss so the caller falls through to the store.
func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		r.log.Warn("redis get failed, treating as miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return b, true
}

// Set stores the payload under key with the given TTL.
func (r *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

// Delete removes a single key.
func (r *redisCache) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

// DeleteMany removes a batch of keys in one DEL.
func (r *redisCache) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

// DeletePattern removes every key starting with prefix.
func (r *redisCache) DeletePattern(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
