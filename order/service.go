package order

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/autozen/backend/cache"
	"github.com/autozen/backend/cart"
	"github.com/autozen/backend/catalog"
	"github.com/autozen/backend/internal/store"
)

var (
	// ErrEmptyCart is returned when checkout finds no lines in the cart.
	ErrEmptyCart = errors.New("order: cart is empty")

	// ErrStockChanged is returned when a cart line can no longer be
	// fulfilled at checkout time. The cached cart may be ahead of the
	// store; the transaction re-checks stock row by row.
	ErrStockChanged = errors.New("order: product stock changed during checkout")

	// ErrInvalidTransition is returned for a status change the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("order: invalid status transition")

	// ErrNotCancellable is returned when cancelling an order that has
	// already shipped or reached a terminal state.
	ErrNotCancellable = errors.New("order: order can no longer be cancelled")
)

// CheckoutRequest carries the shipping details for placing an order.
type CheckoutRequest struct {
	UserID       int64
	FullName     string
	Email        string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	Notes        string
}

// Validate checks the request before any store work happens.
func (r CheckoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Phone, validation.Required, validation.Length(5, 32)),
		validation.Field(&r.AddressLine1, validation.Required),
		validation.Field(&r.City, validation.Required),
		validation.Field(&r.PostalCode, validation.Required),
		validation.Field(&r.Country, validation.Required, validation.Length(2, 64)),
	)
}

// Service exposes the cache-aware order operations. Checkout also drains
// the cart, so the service holds the cart service for the transactional
// removal and the follow-up invalidation.
type Service struct {
	db    *bun.DB
	cache cache.Cache
	inv   *cache.Invalidator
	carts *cart.Service
	log   *zap.Logger
}

// New wires an order service to the store, cache and cart service.
func New(db *bun.DB, c cache.Cache, carts *cart.Service, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:    db,
		cache: c,
		inv:   cache.NewInvalidator(c, log),
		carts: carts,
		log:   log,
	}
}

// Checkout turns the user's cart into a pending order. Order creation,
// stock decrements and the cart drain commit or roll back together; cache
// invalidation for both domains runs after the commit.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	userCart, err := s.carts.CartForUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	o := &Order{
		Number:       newOrderNumber(),
		UserID:       req.UserID,
		Status:       StatusPending,
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		Notes:        req.Notes,
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var lines []*cart.CartItem
		if err := tx.NewSelect().Model(&lines).
			Where("ci.cart_id = ?", userCart.ID).
			Order("ci.id ASC").
			Scan(ctx); err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		productIDs := make([]int64, 0, len(lines))
		var subtotal int64
		for _, line := range lines {
			res, err := tx.NewUpdate().Model((*catalog.Product)(nil)).
				Set("stock_quantity = stock_quantity - ?", line.Quantity).
				Where("id = ?", line.ProductID).
				Where("is_active = ?", true).
				Where("stock_quantity >= ?", line.Quantity).
				Exec(ctx)
			if err != nil {
				return err
			}
			if rows, err := res.RowsAffected(); err != nil {
				return err
			} else if rows == 0 {
				return ErrStockChanged
			}
			subtotal += line.LineTotalCents()
			productIDs = append(productIDs, line.ProductID)
		}

		o.SubtotalCents = subtotal
		o.TaxCents = taxCents(subtotal)
		o.ShippingCents = shippingFlatCents
		o.TotalCents = subtotal + o.TaxCents + o.ShippingCents
		if _, err := tx.NewInsert().Model(o).Exec(ctx); err != nil {
			return err
		}

		for _, line := range lines {
			p := new(catalog.Product)
			if err := tx.NewSelect().Model(p).
				Column("name", "sku").
				Where("p.id = ?", line.ProductID).
				Scan(ctx); err != nil {
				return err
			}
			item := &OrderItem{
				OrderID:     o.ID,
				ProductID:   line.ProductID,
				ProductName: p.Name,
				ProductSKU:  p.SKU,
				PriceCents:  line.PriceCents,
				Quantity:    line.Quantity,
			}
			if _, err := tx.NewInsert().Model(item).Exec(ctx); err != nil {
				return err
			}
			o.Items = append(o.Items, item)
		}

		return s.carts.RemoveProductsTx(ctx, tx, userCart.ID, productIDs)
	})
	if err != nil {
		return nil, err
	}

	s.inv.Invalidate(ctx, orderFanout(o)...)
	s.carts.InvalidateUser(ctx, req.UserID, userCart.ID)
	return o, nil
}

// UserOrders returns the user's orders, newest first.
func (s *Service) UserOrders(ctx context.Context, userID int64) ([]*Order, error) {
	return cache.GetOrFetch(ctx, s.cache, userOrdersKey(userID), cache.TTLOrder,
		func(ctx context.Context) ([]*Order, error) {
			var orders []*Order
			err := s.db.NewSelect().Model(&orders).
				Where("o.user_id = ?", userID).
				Order("o.created_at DESC", "o.id DESC").
				Scan(ctx)
			return orders, err
		})
}

// ByNumber returns an order addressed by its public order number.
func (s *Service) ByNumber(ctx context.Context, number string) (*Order, error) {
	return cache.GetOrFetch(ctx, s.cache, orderKey(number), cache.TTLOrder,
		func(ctx context.Context) (*Order, error) {
			o := new(Order)
			if err := s.db.NewSelect().Model(o).Where("o.number = ?", number).Scan(ctx); err != nil {
				return nil, store.AsNotFound(err)
			}
			return o, nil
		})
}

// ItemsFor returns an order's lines with their products loaded.
func (s *Service) ItemsFor(ctx context.Context, orderID int64) ([]*OrderItem, error) {
	return cache.GetOrFetch(ctx, s.cache, orderItemsKey(orderID), cache.TTLOrder,
		func(ctx context.Context) ([]*OrderItem, error) {
			var items []*OrderItem
			err := s.db.NewSelect().Model(&items).
				Relation("Product").
				Where("oi.order_id = ?", orderID).
				Order("oi.id ASC").
				Scan(ctx)
			return items, err
		})
}

// StatusHistory returns the order's status changes, oldest first.
func (s *Service) StatusHistory(ctx context.Context, orderID int64) ([]*StatusLog, error) {
	var logs []*StatusLog
	err := s.db.NewSelect().Model(&logs).
		Where("osl.order_id = ?", orderID).
		Order("osl.id ASC").
		Scan(ctx)
	return logs, err
}

// UpdateStatus moves an order to the next lifecycle state, stamps the
// matching timestamp, appends a status log row and invalidates the
// order's keys.
func (s *Service) UpdateStatus(ctx context.Context, number string, to Status, note string) (*Order, error) {
	o := new(Order)
	if err := s.db.NewSelect().Model(o).Where("o.number = ?", number).Scan(ctx); err != nil {
		return nil, store.AsNotFound(err)
	}
	if !o.Status.canTransitionTo(to) {
		return nil, ErrInvalidTransition
	}

	from := o.Status
	now := time.Now()
	o.Status = to
	o.UpdatedAt = now
	switch to {
	case StatusConfirmed:
		o.ConfirmedAt = &now
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
	case StatusCancelled:
		o.CancelledAt = &now
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model(o).ExcludeColumn("created_at").WherePK().Exec(ctx); err != nil {
			return err
		}
		logRow := &StatusLog{OrderID: o.ID, FromStatus: from, ToStatus: to, Note: note}
		_, err := tx.NewInsert().Model(logRow).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.inv.Invalidate(ctx, orderFanout(o)...)
	return o, nil
}

// Cancel cancels an order that has not shipped and returns its stock to
// the catalog.
func (s *Service) Cancel(ctx context.Context, number, note string) (*Order, error) {
	o := new(Order)
	if err := s.db.NewSelect().Model(o).Where("o.number = ?", number).Scan(ctx); err != nil {
		return nil, store.AsNotFound(err)
	}
	if !o.Status.canTransitionTo(StatusCancelled) {
		return nil, ErrNotCancellable
	}

	from := o.Status
	now := time.Now()
	o.Status = StatusCancelled
	o.UpdatedAt = now
	o.CancelledAt = &now

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var items []*OrderItem
		if err := tx.NewSelect().Model(&items).
			Where("oi.order_id = ?", o.ID).
			Scan(ctx); err != nil {
			return err
		}
		for _, item := range items {
			if _, err := tx.NewUpdate().Model((*catalog.Product)(nil)).
				Set("stock_quantity = stock_quantity + ?", item.Quantity).
				Where("id = ?", item.ProductID).
				Exec(ctx); err != nil {
				return err
			}
		}
		if _, err := tx.NewUpdate().Model(o).ExcludeColumn("created_at").WherePK().Exec(ctx); err != nil {
			return err
		}
		logRow := &StatusLog{OrderID: o.ID, FromStatus: from, ToStatus: StatusCancelled, Note: note}
		_, err := tx.NewInsert().Model(logRow).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.inv.Invalidate(ctx, orderFanout(o)...)
	return o, nil
}
