package wishlist

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/autozen/backend/cache"
	"github.com/autozen/backend/catalog"
	"github.com/autozen/backend/internal/store"
)

// ErrProductUnavailable is returned when saving a product that is not
// active.
var ErrProductUnavailable = errors.New("wishlist: product is not available")

// Service exposes the cache-aware wishlist operations.
type Service struct {
	db    bun.IDB
	cache cache.Cache
	inv   *cache.Invalidator
	log   *zap.Logger
}

// New wires a wishlist service to the store and cache.
func New(db bun.IDB, c cache.Cache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:    db,
		cache: c,
		inv:   cache.NewInvalidator(c, log),
		log:   log,
	}
}

// ForUser returns the user's wishlist, creating it on first use.
func (s *Service) ForUser(ctx context.Context, userID int64) (*Wishlist, error) {
	return cache.GetOrFetch(ctx, s.cache, wishlistKey(userID), cache.TTLWishlist,
		func(ctx context.Context) (*Wishlist, error) {
			w := new(Wishlist)
			err := s.db.NewSelect().Model(w).Where("w.user_id = ?", userID).Scan(ctx)
			if err == nil {
				return w, nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, err
			}
			w = &Wishlist{UserID: userID}
			if _, err := s.db.NewInsert().Model(w).Exec(ctx); err != nil {
				return nil, err
			}
			return w, nil
		})
}

// Items returns the user's saved products, newest first.
func (s *Service) Items(ctx context.Context, userID int64) ([]*Item, error) {
	w, err := s.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cache.GetOrFetch(ctx, s.cache, itemsKey(userID), cache.TTLWishlist,
		func(ctx context.Context) ([]*Item, error) {
			var items []*Item
			err := s.db.NewSelect().Model(&items).
				Relation("Product").
				Where("wi.wishlist_id = ?", w.ID).
				Order("wi.created_at DESC", "wi.id DESC").
				Scan(ctx)
			return items, err
		})
}

// Count returns how many products the user has saved.
func (s *Service) Count(ctx context.Context, userID int64) (int, error) {
	w, err := s.ForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return cache.GetOrFetch(ctx, s.cache, countKey(userID), cache.TTLWishlist,
		func(ctx context.Context) (int, error) {
			return s.db.NewSelect().Model((*Item)(nil)).
				Where("wi.wishlist_id = ?", w.ID).
				Count(ctx)
		})
}

// ResponseFor assembles the full wishlist payload and caches the bundle
// under its own key, so hot read paths pay one cache hit instead of
// three.
func (s *Service) ResponseFor(ctx context.Context, userID int64) (*Response, error) {
	return cache.GetOrFetch(ctx, s.cache, responseKey(userID), cache.TTLWishlist,
		func(ctx context.Context) (*Response, error) {
			w, err := s.ForUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			items, err := s.Items(ctx, userID)
			if err != nil {
				return nil, err
			}
			return &Response{Wishlist: w, Items: items, Count: len(items)}, nil
		})
}

// Add saves a product to the user's wishlist. It reports whether a new
// entry was created; saving a product already on the list is a no-op.
func (s *Service) Add(ctx context.Context, userID, productID int64) (bool, error) {
	p := new(catalog.Product)
	if err := s.db.NewSelect().Model(p).Where("p.id = ?", productID).Scan(ctx); err != nil {
		return false, store.AsNotFound(err)
	}
	if !p.IsActive {
		return false, ErrProductUnavailable
	}
	w, err := s.ForUser(ctx, userID)
	if err != nil {
		return false, err
	}

	exists, err := s.db.NewSelect().Model((*Item)(nil)).
		Where("wishlist_id = ?", w.ID).
		Where("product_id = ?", productID).
		Exists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	item := &Item{WishlistID: w.ID, ProductID: productID}
	if _, err := s.db.NewInsert().Model(item).Exec(ctx); err != nil {
		return false, err
	}
	s.inv.Invalidate(ctx, userFanout(userID)...)
	return true, nil
}

// Remove takes a product off the user's wishlist. Removing a product
// that is not on the list is a no-op.
func (s *Service) Remove(ctx context.Context, userID, productID int64) error {
	w, err := s.ForUser(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.db.NewDelete().Model((*Item)(nil)).
		Where("wishlist_id = ?", w.ID).
		Where("product_id = ?", productID).
		Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, userFanout(userID)...)
	return nil
}

// Clear removes every product from the user's wishlist.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	w, err := s.ForUser(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.db.NewDelete().Model((*Item)(nil)).
		Where("wishlist_id = ?", w.ID).
		Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, userFanout(userID)...)
	return nil
}

// Contains reports whether the product is on the user's wishlist. A
// cached item list answers without touching the store.
func (s *Service) Contains(ctx context.Context, userID, productID int64) (bool, error) {
	if payload, ok := s.cache.Get(ctx, itemsKey(userID)); ok {
		var items []*Item
		if msgpack.Unmarshal(payload, &items) == nil {
			for _, item := range items {
				if item.ProductID == productID {
					return true, nil
				}
			}
			return false, nil
		}
	}
	w, err := s.ForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.db.NewSelect().Model((*Item)(nil)).
		Where("wishlist_id = ?", w.ID).
		Where("product_id = ?", productID).
		Exists(ctx)
}
