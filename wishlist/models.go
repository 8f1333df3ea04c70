package wishlist

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/autozen/backend/catalog"
)

// Wishlist holds a user's saved products. Each user has at most one.
type Wishlist struct {
	bun.BaseModel `bun:"table:wishlists,alias:w"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	Items []*Item `bun:"rel:has-many,join:id=wishlist_id"`
}

// Item is one saved product on a wishlist.
type Item struct {
	bun.BaseModel `bun:"table:wishlist_items,alias:wi"`

	ID         int64     `bun:"id,pk,autoincrement"`
	WishlistID int64     `bun:"wishlist_id,notnull,unique:uq_wishlist_product"`
	ProductID  int64     `bun:"product_id,notnull,unique:uq_wishlist_product"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`

	Wishlist *Wishlist        `bun:"rel:belongs-to,join:wishlist_id=id"`
	Product  *catalog.Product `bun:"rel:belongs-to,join:product_id=id"`
}

// Response is the assembled wishlist payload handed to callers: the
// wishlist row, its items with products, and the count, cached as one
// bundle.
type Response struct {
	Wishlist *Wishlist `msgpack:"wishlist"`
	Items    []*Item   `msgpack:"items"`
	Count    int       `msgpack:"count"`
}

// Models lists the wishlist tables in creation order.
func Models() []any {
	return []any{
		(*Wishlist)(nil),
		(*Item)(nil),
	}
}
