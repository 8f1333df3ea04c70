package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/autozen/backend/cache"
	"github.com/autozen/backend/internal/store"
)

var (
	// ErrInvalidAmount is returned for a non-positive transaction or
	// refund amount, or a refund exceeding its transaction.
	ErrInvalidAmount = errors.New("payment: invalid amount")

	// ErrNotRefundable is returned when a refund targets a transaction
	// that never completed.
	ErrNotRefundable = errors.New("payment: transaction is not refundable")
)

// Service exposes the cache-aware payment operations. Gateway
// configuration changes rarely, so it caches on the long tier.
type Service struct {
	db    bun.IDB
	cache cache.Cache
	inv   *cache.Invalidator
	log   *zap.Logger
}

// New wires a payment service to the store and cache.
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

// ConfigForGateway returns one gateway's configuration.
func (s *Service) ConfigForGateway(ctx context.Context, gateway string) (*Configuration, error) {
	return cache.GetOrFetch(ctx, s.cache, configKey(gateway), cache.TTLPaymentConfig,
		func(ctx context.Context) (*Configuration, error) {
			c := new(Configuration)
			if err := s.db.NewSelect().Model(c).Where("pcfg.gateway = ?", gateway).Scan(ctx); err != nil {
				return nil, store.AsNotFound(err)
			}
			return c, nil
		})
}

// ActiveConfigs returns the enabled gateways in display order.
func (s *Service) ActiveConfigs(ctx context.Context) ([]*Configuration, error) {
	return cache.GetOrFetch(ctx, s.cache, activeConfigsKey(), cache.TTLPaymentConfig,
		func(ctx context.Context) ([]*Configuration, error) {
			var configs []*Configuration
			err := s.db.NewSelect().Model(&configs).
				Where("pcfg.is_active = ?", true).
				Order("pcfg.sort_order ASC", "pcfg.gateway ASC").
				Scan(ctx)
			return configs, err
		})
}

// SaveConfig creates or updates a gateway configuration and invalidates
// its key and the active list.
func (s *Service) SaveConfig(ctx context.Context, c *Configuration) error {
	var err error
	if c.ID == 0 {
		_, err = s.db.NewInsert().Model(c).Exec(ctx)
	} else {
		c.UpdatedAt = time.Now()
		_, err = s.db.NewUpdate().Model(c).ExcludeColumn("created_at").WherePK().Exec(ctx)
	}
	if err != nil {
		return err
	}
	s.inv.Invalidate(ctx, configFanout(c)...)
	return nil
}

// DeleteConfig removes a gateway configuration and invalidates its key
// and the active list. Deleting an unknown id is a no-op.
func (s *Service) DeleteConfig(ctx context.Context, id int64) error {
	c := new(Configuration)
	if err := s.db.NewSelect().Model(c).Where("pcfg.id = ?", id).Scan(ctx); err != nil {
		if store.NotFound(store.AsNotFound(err)) {
			return nil
		}
		return err
	}
	if _, err := s.db.NewDelete().Model(c).WherePK().Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, configFanout(c)...)
	return nil
}

// TransactionByID returns a transaction by its public id.
func (s *Service) TransactionByID(ctx context.Context, txID string) (*Transaction, error) {
	return cache.GetOrFetch(ctx, s.cache, transactionKey(txID), cache.TTLTransaction,
		func(ctx context.Context) (*Transaction, error) {
			t := new(Transaction)
			if err := s.db.NewSelect().Model(t).Where("ptx.tx_id = ?", txID).Scan(ctx); err != nil {
				return nil, store.AsNotFound(err)
			}
			return t, nil
		})
}

// UserTransactions returns a user's transactions, newest first.
func (s *Service) UserTransactions(ctx context.Context, userID int64) ([]*Transaction, error) {
	return cache.GetOrFetch(ctx, s.cache, userTransactionsKey(userID), cache.TTLTransaction,
		func(ctx context.Context) ([]*Transaction, error) {
			var txs []*Transaction
			err := s.db.NewSelect().Model(&txs).
				Where("ptx.user_id = ?", userID).
				Order("ptx.created_at DESC", "ptx.id DESC").
				Scan(ctx)
			return txs, err
		})
}

// RecordTransaction stores a new pending transaction, assigning its
// public id, and invalidates the owner's history.
func (s *Service) RecordTransaction(ctx context.Context, t *Transaction) error {
	if t.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if t.TxID == "" {
		t.TxID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TxPending
	}
	if t.Currency == "" {
		t.Currency = "USD"
	}
	if _, err := s.db.NewInsert().Model(t).Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, transactionFanout(t)...)
	return nil
}

// UpdateTransactionStatus moves a transaction to a new state, recording
// the gateway's reference when one is supplied.
func (s *Service) UpdateTransactionStatus(ctx context.Context, txID string, status TxStatus, gatewayRef string) (*Transaction, error) {
	t := new(Transaction)
	if err := s.db.NewSelect().Model(t).Where("ptx.tx_id = ?", txID).Scan(ctx); err != nil {
		return nil, store.AsNotFound(err)
	}
	t.Status = status
	if gatewayRef != "" {
		t.GatewayRef = gatewayRef
	}
	t.UpdatedAt = time.Now()
	if _, err := s.db.NewUpdate().Model(t).
		Column("status", "gateway_ref", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, transactionFanout(t)...)
	return t, nil
}

// RefundByID returns a refund with its transaction loaded.
func (s *Service) RefundByID(ctx context.Context, refundID string) (*Refund, error) {
	return cache.GetOrFetch(ctx, s.cache, refundKey(refundID), cache.TTLTransaction,
		func(ctx context.Context) (*Refund, error) {
			r := new(Refund)
			if err := s.db.NewSelect().Model(r).
				Relation("Transaction").
				Where("prf.refund_id = ?", refundID).
				Scan(ctx); err != nil {
				return nil, store.AsNotFound(err)
			}
			return r, nil
		})
}

// RequestRefund opens a refund against a completed transaction. The
// amount may be partial but never exceeds the transaction.
func (s *Service) RequestRefund(ctx context.Context, txID string, amountCents int64, reason string) (*Refund, error) {
	t := new(Transaction)
	if err := s.db.NewSelect().Model(t).Where("ptx.tx_id = ?", txID).Scan(ctx); err != nil {
		return nil, store.AsNotFound(err)
	}
	if t.Status != TxCompleted {
		return nil, ErrNotRefundable
	}
	if amountCents <= 0 || amountCents > t.AmountCents {
		return nil, ErrInvalidAmount
	}

	r := &Refund{
		RefundID:      uuid.NewString(),
		TransactionID: t.ID,
		AmountCents:   amountCents,
		Reason:        reason,
		Status:        RefundRequested,
	}
	if _, err := s.db.NewInsert().Model(r).Exec(ctx); err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, transactionFanout(t)...)
	return r, nil
}

// ResolveRefund approves or rejects a refund. Approval marks the
// underlying transaction refunded.
func (s *Service) ResolveRefund(ctx context.Context, refundID string, status RefundStatus) (*Refund, error) {
	r := new(Refund)
	if err := s.db.NewSelect().Model(r).
		Relation("Transaction").
		Where("prf.refund_id = ?", refundID).
		Scan(ctx); err != nil {
		return nil, store.AsNotFound(err)
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	if _, err := s.db.NewUpdate().Model(r).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, err
	}
	keys := []string{refundKey(r.RefundID)}
	if status == RefundApproved && r.Transaction != nil {
		if _, err := s.UpdateTransactionStatus(ctx, r.Transaction.TxID, TxRefunded, ""); err != nil {
			return nil, err
		}
	} else if r.Transaction != nil {
		keys = append(keys, transactionFanout(r.Transaction)...)
	}
	s.inv.Invalidate(ctx, keys...)
	return r, nil
}

// InvalidateConfigs drops every gateway configuration entry plus the
// active list. Bulk admin edits call it instead of enumerating gateways.
func (s *Service) InvalidateConfigs(ctx context.Context) {
	s.inv.InvalidatePattern(ctx, configPrefix)
	s.inv.Invalidate(ctx, activeConfigsKey())
}

// InvalidateAll clears everything the payment service has cached:
// configurations, transactions, per-user histories and refunds.
func (s *Service) InvalidateAll(ctx context.Context) {
	for _, prefix := range []string{configPrefix, transactionPrefix, userTransactionsPrefix, refundPrefix} {
		s.inv.InvalidatePattern(ctx, prefix)
	}
	s.inv.Invalidate(ctx, activeConfigsKey())
}
