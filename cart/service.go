package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/autozen/backend/cache"
	"github.com/autozen/backend/catalog"
	"github.com/autozen/backend/internal/store"
)

var (
	// ErrInvalidQuantity is returned when a caller asks for zero or a
	// negative number of units.
	ErrInvalidQuantity = errors.New("cart: quantity must be positive")

	// ErrProductUnavailable is returned when the product exists but is
	// not purchasable.
	ErrProductUnavailable = errors.New("cart: product is not available")

	// ErrInsufficientStock is returned when the requested quantity
	// exceeds what the store has on hand.
	ErrInsufficientStock = errors.New("cart: insufficient stock")
)

// Summary carries the three cart aggregates computed by the store.
type Summary struct {
	ItemsCount    int   `msgpack:"items_count"`
	TotalQuantity int   `msgpack:"total_quantity"`
	SubtotalCents int64 `msgpack:"subtotal_cents"`
}

// Subtotal renders the subtotal as a decimal string.
func (s Summary) Subtotal() string {
	return catalog.FormatCents(s.SubtotalCents)
}

// Service exposes the cache-aware cart operations.
type Service struct {
	db    bun.IDB
	cache cache.Cache
	inv   *cache.Invalidator
	log   *zap.Logger
}

// New wires a cart service to the store and cache.
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

// CartForUser returns the user's cart, creating it on first use. The
// cached entry holds the cart row, not its items.
func (s *Service) CartForUser(ctx context.Context, userID int64) (*Cart, error) {
	return cache.GetOrFetch(ctx, s.cache, cartKey(userID), cache.TTLCart,
		func(ctx context.Context) (*Cart, error) {
			c := new(Cart)
			err := s.db.NewSelect().Model(c).Where("ct.user_id = ?", userID).Scan(ctx)
			if err == nil {
				return c, nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, err
			}
			c = &Cart{UserID: userID}
			if _, err := s.db.NewInsert().Model(c).Exec(ctx); err != nil {
				return nil, err
			}
			return c, nil
		})
}

// Items returns the user's cart lines with products loaded, oldest first.
func (s *Service) Items(ctx context.Context, userID int64) ([]*CartItem, error) {
	cart, err := s.CartForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cache.GetOrFetch(ctx, s.cache, cartItemsKey(userID), cache.TTLCart,
		func(ctx context.Context) ([]*CartItem, error) {
			var items []*CartItem
			err := s.db.NewSelect().Model(&items).
				Relation("Product").
				Where("ci.cart_id = ?", cart.ID).
				Order("ci.created_at ASC", "ci.id ASC").
				Scan(ctx)
			return items, err
		})
}

// ItemsCount returns the number of distinct lines in a cart.
func (s *Service) ItemsCount(ctx context.Context, cartID int64) (int, error) {
	return cache.GetOrFetch(ctx, s.cache, itemsCountKey(cartID), cache.TTLCart,
		func(ctx context.Context) (int, error) {
			return s.db.NewSelect().Model((*CartItem)(nil)).
				Where("ci.cart_id = ?", cartID).
				Count(ctx)
		})
}

// TotalQuantity returns the summed unit count across all lines.
func (s *Service) TotalQuantity(ctx context.Context, cartID int64) (int, error) {
	return cache.GetOrFetch(ctx, s.cache, totalQuantityKey(cartID), cache.TTLCart,
		func(ctx context.Context) (int, error) {
			var total int
			err := s.db.NewSelect().Model((*CartItem)(nil)).
				ColumnExpr("COALESCE(SUM(ci.quantity), 0)").
				Where("ci.cart_id = ?", cartID).
				Scan(ctx, &total)
			return total, err
		})
}

// SubtotalCents returns the summed line totals in cents. The store
// computes the sum, so the figure is exact.
func (s *Service) SubtotalCents(ctx context.Context, cartID int64) (int64, error) {
	return cache.GetOrFetch(ctx, s.cache, subtotalKey(cartID), cache.TTLCart,
		func(ctx context.Context) (int64, error) {
			var subtotal int64
			err := s.db.NewSelect().Model((*CartItem)(nil)).
				ColumnExpr("COALESCE(SUM(ci.quantity * ci.price_cents), 0)").
				Where("ci.cart_id = ?", cartID).
				Scan(ctx, &subtotal)
			return subtotal, err
		})
}

// Summary bundles the three cart aggregates. Each figure is cached under
// its own key, so a partial invalidation never serves a stale bundle.
func (s *Service) Summary(ctx context.Context, cartID int64) (Summary, error) {
	count, err := s.ItemsCount(ctx, cartID)
	if err != nil {
		return Summary{}, err
	}
	qty, err := s.TotalQuantity(ctx, cartID)
	if err != nil {
		return Summary{}, err
	}
	subtotal, err := s.SubtotalCents(ctx, cartID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{ItemsCount: count, TotalQuantity: qty, SubtotalCents: subtotal}, nil
}

// AddItem puts quantity units of a product into the user's cart. Adding a
// product already in the cart increments the existing line. The line
// captures the product's current price on creation.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	p := new(catalog.Product)
	if err := s.db.NewSelect().Model(p).Where("p.id = ?", productID).Scan(ctx); err != nil {
		return nil, store.AsNotFound(err)
	}
	if !p.IsActive {
		return nil, ErrProductUnavailable
	}
	cart, err := s.CartForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := new(CartItem)
	err = s.db.NewSelect().Model(item).
		Where("ci.cart_id = ?", cart.ID).
		Where("ci.product_id = ?", productID).
		Scan(ctx)
	switch {
	case err == nil:
		if item.Quantity+quantity > p.StockQuantity {
			return nil, ErrInsufficientStock
		}
		item.Quantity += quantity
		if _, err := s.db.NewUpdate().Model(item).
			Column("quantity").
			WherePK().
			Exec(ctx); err != nil {
			return nil, err
		}
	case errors.Is(err, sql.ErrNoRows):
		if quantity > p.StockQuantity {
			return nil, ErrInsufficientStock
		}
		item = &CartItem{
			CartID:     cart.ID,
			ProductID:  productID,
			Quantity:   quantity,
			PriceCents: p.PriceCents,
		}
		if _, err := s.db.NewInsert().Model(item).Exec(ctx); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.inv.Invalidate(ctx, cartFanout(userID, cart.ID)...)
	return item, nil
}

// UpdateItemQuantity sets the quantity of a line. A quantity of zero or
// less removes the line instead.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	cart, err := s.CartForUser(ctx, userID)
	if err != nil {
		return err
	}
	item := new(CartItem)
	if err := s.db.NewSelect().Model(item).
		Where("ci.cart_id = ?", cart.ID).
		Where("ci.product_id = ?", productID).
		Scan(ctx); err != nil {
		return store.AsNotFound(err)
	}
	p := new(catalog.Product)
	if err := s.db.NewSelect().Model(p).Where("p.id = ?", productID).Scan(ctx); err != nil {
		return store.AsNotFound(err)
	}
	if quantity > p.StockQuantity {
		return ErrInsufficientStock
	}
	item.Quantity = quantity
	if _, err := s.db.NewUpdate().Model(item).
		Column("quantity").
		WherePK().
		Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, cartFanout(userID, cart.ID)...)
	return nil
}

// RemoveItem deletes a product's line from the user's cart. Removing a
// product that is not in the cart is a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, productID int64) error {
	cart, err := s.CartForUser(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.db.NewDelete().Model((*CartItem)(nil)).
		Where("cart_id = ?", cart.ID).
		Where("product_id = ?", productID).
		Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, cartFanout(userID, cart.ID)...)
	return nil
}

// Clear drops every line from the user's cart.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	cart, err := s.CartForUser(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.db.NewDelete().Model((*CartItem)(nil)).
		Where("cart_id = ?", cart.ID).
		Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, cartFanout(userID, cart.ID)...)
	return nil
}

// Contains reports whether the product has a line in the user's cart.
func (s *Service) Contains(ctx context.Context, userID, productID int64) (bool, error) {
	cart, err := s.CartForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.db.NewSelect().Model((*CartItem)(nil)).
		Where("cart_id = ?", cart.ID).
		Where("product_id = ?", productID).
		Exists(ctx)
}

// RemoveProductsTx deletes the given products' lines inside a caller-held
// transaction. Checkout uses it so the cart drain commits or rolls back
// with the order; the caller invalidates afterwards via InvalidateUser.
func (s *Service) RemoveProductsTx(ctx context.Context, tx bun.IDB, cartID int64, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := tx.NewDelete().Model((*CartItem)(nil)).
		Where("cart_id = ?", cartID).
		Where("product_id IN (?)", bun.In(productIDs)).
		Exec(ctx)
	return err
}

// InvalidateUser drops every cached cart entry for the user. Exposed for
// cross-domain writes that change the cart outside this service.
func (s *Service) InvalidateUser(ctx context.Context, userID, cartID int64) {
	s.inv.Invalidate(ctx, cartFanout(userID, cartID)...)
}
