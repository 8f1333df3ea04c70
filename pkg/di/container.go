// Package di wires the store, cache and domain services into a single
// container so callers configure the stack in one place.
package di

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/autozen/backend/cache"
	"github.com/autozen/backend/cart"
	"github.com/autozen/backend/catalog"
	"github.com/autozen/backend/internal/store"
	"github.com/autozen/backend/landing"
	"github.com/autozen/backend/order"
	"github.com/autozen/backend/pages"
	"github.com/autozen/backend/payment"
	"github.com/autozen/backend/users"
	"github.com/autozen/backend/wishlist"
)

// Config selects the store backend and the cache backend. A nil Redis
// block means the in-process cache; a nil Logger means no logging.
type Config struct {
	Store  store.Config
	Memory cache.MemoryConfig
	Redis  *cache.RedisConfig
	Logger *zap.Logger
}

// Container owns the shared infrastructure and the domain services
// built on it.
type Container struct {
	db    *bun.DB
	cache cache.Cache
	log   *zap.Logger

	catalog   *catalog.Service
	carts     *cart.Service
	orders    *order.Service
	payments  *payment.Service
	wishlists *wishlist.Service
	pages     *pages.Service
	landing   *landing.Service
	users     *users.Service
}

// New validates the configuration, opens the store, builds the cache
// backend and constructs every service against them.
func New(cfg Config) (*Container, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	db, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}

	var c cache.Cache
	if cfg.Redis != nil {
		c, err = cache.NewRedisCache(*cfg.Redis, log)
	} else {
		mem := cfg.Memory
		if mem == (cache.MemoryConfig{}) {
			mem = cache.DefaultMemoryConfig()
		}
		c, err = cache.NewMemoryCache(mem)
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	ctr := &Container{db: db, cache: c, log: log}
	ctr.catalog = catalog.New(db, c, log)
	ctr.carts = cart.New(db, c, log)
	ctr.orders = order.New(db, c, ctr.carts, log)
	ctr.payments = payment.New(db, c, log)
	ctr.wishlists = wishlist.New(db, c, log)
	ctr.pages = pages.New(db, c, log)
	ctr.landing = landing.New(db, c, ctr.catalog, log)
	ctr.users = users.New(db, c, log)
	return ctr, nil
}

// Migrate creates every table the services use, in dependency order.
func (c *Container) Migrate(ctx context.Context) error {
	models := catalog.Models()
	models = append(models, cart.Models()...)
	models = append(models, order.Models()...)
	models = append(models, payment.Models()...)
	models = append(models, wishlist.Models()...)
	models = append(models, pages.Models()...)
	models = append(models, landing.Models()...)
	models = append(models, users.Models()...)
	return store.Migrate(ctx, c.db, models...)
}

// Close releases the store connection.
func (c *Container) Close() error {
	return c.db.Close()
}

func (c *Container) DB() *bun.DB                  { return c.db }
func (c *Container) Cache() cache.Cache           { return c.cache }
func (c *Container) Catalog() *catalog.Service    { return c.catalog }
func (c *Container) Carts() *cart.Service         { return c.carts }
func (c *Container) Orders() *order.Service       { return c.orders }
func (c *Container) Payments() *payment.Service   { return c.payments }
func (c *Container) Wishlists() *wishlist.Service { return c.wishlists }
func (c *Container) Pages() *pages.Service        { return c.pages }
func (c *Container) Landing() *landing.Service    { return c.landing }
func (c *Container) Users() *users.Service        { return c.users }
