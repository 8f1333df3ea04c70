package cart

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/autozen/backend/catalog"
)

// Cart holds a user's open basket. Each user has at most one cart.
type Cart struct {
	bun.BaseModel `bun:"table:carts,alias:ct"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	Items []*CartItem `bun:"rel:has-many,join:id=cart_id"`
}

// CartItem is one product line in a cart. The product's price is captured
// at the moment the line is created so later catalog price changes do not
// move an open basket.
type CartItem struct {
	bun.BaseModel `bun:"table:cart_items,alias:ci"`

	ID         int64     `bun:"id,pk,autoincrement"`
	CartID     int64     `bun:"cart_id,notnull,unique:uq_cart_product"`
	ProductID  int64     `bun:"product_id,notnull,unique:uq_cart_product"`
	Quantity   int       `bun:"quantity,notnull"`
	PriceCents int64     `bun:"price_cents,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`

	Cart    *Cart            `bun:"rel:belongs-to,join:cart_id=id"`
	Product *catalog.Product `bun:"rel:belongs-to,join:product_id=id"`
}

// LineTotalCents is the item's quantity times its captured price.
func (i *CartItem) LineTotalCents() int64 {
	return int64(i.Quantity) * i.PriceCents
}

// Models lists the cart tables in creation order.
func Models() []any {
	return []any{
		(*Cart)(nil),
		(*CartItem)(nil),
	}
}
