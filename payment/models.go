package payment

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/autozen/backend/catalog"
)

// TxStatus is the lifecycle state of a gateway transaction.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
	TxFailed    TxStatus = "failed"
	TxRefunded  TxStatus = "refunded"
)

// RefundStatus is the lifecycle state of a refund request.
type RefundStatus string

const (
	RefundRequested RefundStatus = "requested"
	RefundApproved  RefundStatus = "approved"
	RefundRejected  RefundStatus = "rejected"
)

// Configuration holds the settings for one payment gateway. Secret
// material stays out of the row; SecretKeyRef names where the deployment
// keeps it.
type Configuration struct {
	bun.BaseModel `bun:"table:payment_configurations,alias:pcfg"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Gateway      string    `bun:"gateway,notnull,unique"`
	DisplayName  string    `bun:"display_name,notnull"`
	PublicKey    string    `bun:"public_key"`
	SecretKeyRef string    `bun:"secret_key_ref"`
	IsActive     bool      `bun:"is_active,notnull,default:false"`
	IsSandbox    bool      `bun:"is_sandbox,notnull,default:true"`
	SortOrder    int       `bun:"sort_order,notnull,default:0"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Transaction records one payment attempt against an order.
type Transaction struct {
	bun.BaseModel `bun:"table:payment_transactions,alias:ptx"`

	ID          int64     `bun:"id,pk,autoincrement"`
	TxID        string    `bun:"tx_id,notnull,unique"`
	OrderID     int64     `bun:"order_id,notnull"`
	UserID      int64     `bun:"user_id,notnull"`
	Gateway     string    `bun:"gateway,notnull"`
	AmountCents int64     `bun:"amount_cents,notnull"`
	Currency    string    `bun:"currency,notnull,default:'USD'"`
	Status      TxStatus  `bun:"status,notnull"`
	GatewayRef  string    `bun:"gateway_ref"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Amount renders the transaction amount as a decimal string.
func (t *Transaction) Amount() string {
	return catalog.FormatCents(t.AmountCents)
}

// Refund records a refund request against a completed transaction.
type Refund struct {
	bun.BaseModel `bun:"table:payment_refunds,alias:prf"`

	ID            int64        `bun:"id,pk,autoincrement"`
	RefundID      string       `bun:"refund_id,notnull,unique"`
	TransactionID int64        `bun:"transaction_id,notnull"`
	AmountCents   int64        `bun:"amount_cents,notnull"`
	Reason        string       `bun:"reason"`
	Status        RefundStatus `bun:"status,notnull"`
	CreatedAt     time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time    `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	Transaction *Transaction `bun:"rel:belongs-to,join:transaction_id=id"`
}

// Models lists the payment tables in creation order.
func Models() []any {
	return []any{
		(*Configuration)(nil),
		(*Transaction)(nil),
		(*Refund)(nil),
	}
}
