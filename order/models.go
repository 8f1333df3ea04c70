package order

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/autozen/backend/catalog"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// transitions lists the states reachable from each state. Delivered and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func (s Status) canTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a placed order with its shipping address and price breakdown
// frozen at checkout time.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Number string `bun:"number,notnull,unique"`
	UserID int64  `bun:"user_id,notnull"`
	Status Status `bun:"status,notnull"`

	FullName     string `bun:"full_name,notnull"`
	Email        string `bun:"email,notnull"`
	Phone        string `bun:"phone,notnull"`
	AddressLine1 string `bun:"address_line1,notnull"`
	AddressLine2 string `bun:"address_line2"`
	City         string `bun:"city,notnull"`
	State        string `bun:"state"`
	PostalCode   string `bun:"postal_code,notnull"`
	Country      string `bun:"country,notnull"`
	Notes        string `bun:"notes"`

	SubtotalCents int64 `bun:"subtotal_cents,notnull"`
	TaxCents      int64 `bun:"tax_cents,notnull"`
	ShippingCents int64 `bun:"shipping_cents,notnull"`
	TotalCents    int64 `bun:"total_cents,notnull"`

	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	ConfirmedAt *time.Time `bun:"confirmed_at"`
	ShippedAt   *time.Time `bun:"shipped_at"`
	DeliveredAt *time.Time `bun:"delivered_at"`
	CancelledAt *time.Time `bun:"cancelled_at"`

	Items []*OrderItem `bun:"rel:has-many,join:id=order_id"`
}

// Total renders the order total as a decimal string.
func (o *Order) Total() string {
	return catalog.FormatCents(o.TotalCents)
}

// OrderItem is a line on a placed order. Name, SKU and price are
// snapshots so later catalog edits do not rewrite order history.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID          int64  `bun:"id,pk,autoincrement"`
	OrderID     int64  `bun:"order_id,notnull"`
	ProductID   int64  `bun:"product_id,notnull"`
	ProductName string `bun:"product_name,notnull"`
	ProductSKU  string `bun:"product_sku,notnull"`
	PriceCents  int64  `bun:"price_cents,notnull"`
	Quantity    int    `bun:"quantity,notnull"`

	Order   *Order           `bun:"rel:belongs-to,join:order_id=id"`
	Product *catalog.Product `bun:"rel:belongs-to,join:product_id=id"`
}

// LineTotalCents is the line's quantity times its snapshot price.
func (i *OrderItem) LineTotalCents() int64 {
	return int64(i.Quantity) * i.PriceCents
}

// StatusLog records one status change on an order.
type StatusLog struct {
	bun.BaseModel `bun:"table:order_status_logs,alias:osl"`

	ID         int64     `bun:"id,pk,autoincrement"`
	OrderID    int64     `bun:"order_id,notnull"`
	FromStatus Status    `bun:"from_status,notnull"`
	ToStatus   Status    `bun:"to_status,notnull"`
	Note       string    `bun:"note"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Models lists the order tables in creation order.
func Models() []any {
	return []any{
		(*Order)(nil),
		(*OrderItem)(nil),
		(*StatusLog)(nil),
	}
}
