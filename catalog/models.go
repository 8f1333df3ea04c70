// Package catalog implements the product catalog: brands, vehicle models,
// part categories and products, with cache-aside reads and explicit
// invalidation fan-out on every write.
package catalog

import (
	"time"

	"github.com/uptrace/bun"
)

// Brand is a parts manufacturer.
type Brand struct {
	bun.BaseModel `bun:"table:brands,alias:b"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Slug        string    `bun:"slug,notnull,unique" json:"slug"`
	Description string    `bun:"description" json:"description"`
	LogoURL     string    `bun:"logo_url" json:"logo_url"`
	IsActive    bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// VehicleModel is a vehicle a part can fit, belonging to a Brand.
type VehicleModel struct {
	bun.BaseModel `bun:"table:vehicle_models,alias:vm"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	BrandID   int64     `bun:"brand_id,notnull" json:"brand_id"`
	Brand     *Brand    `bun:"rel:belongs-to,join:brand_id=id" json:"brand,omitempty"`
	Name      string    `bun:"name,notnull" json:"name"`
	Slug      string    `bun:"slug,notnull,unique" json:"slug"`
	YearFrom  int       `bun:"year_from" json:"year_from"`
	YearTo    int       `bun:"year_to" json:"year_to"`
	IsActive  bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// PartCategory is a node in the category tree. A nil ParentID marks a
// top-level category.
type PartCategory struct {
	bun.BaseModel `bun:"table:part_categories,alias:pc"`

	ID          int64         `bun:"id,pk,autoincrement" json:"id"`
	ParentID    *int64        `bun:"parent_id" json:"parent_id,omitempty"`
	Parent      *PartCategory `bun:"rel:belongs-to,join:parent_id=id" json:"parent,omitempty"`
	Name        string        `bun:"name,notnull" json:"name"`
	Slug        string        `bun:"slug,notnull,unique" json:"slug"`
	Description string        `bun:"description" json:"description"`
	IsActive    bool          `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt   time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time     `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Product is a spare part, addressable by id, slug and SKU. Prices are
// integer cents.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID             int64         `bun:"id,pk,autoincrement" json:"id"`
	Name           string        `bun:"name,notnull" json:"name"`
	Slug           string        `bun:"slug,notnull,unique" json:"slug"`
	SKU            string        `bun:"sku,notnull,unique" json:"sku"`
	OEMNumber      string        `bun:"oem_number" json:"oem_number"`
	Description    string        `bun:"description" json:"description"`
	BrandID        int64         `bun:"brand_id,notnull" json:"brand_id"`
	Brand          *Brand        `bun:"rel:belongs-to,join:brand_id=id" json:"brand,omitempty"`
	VehicleModelID int64         `bun:"vehicle_model_id,notnull" json:"vehicle_model_id"`
	VehicleModel   *VehicleModel `bun:"rel:belongs-to,join:vehicle_model_id=id" json:"vehicle_model,omitempty"`
	PartCategoryID int64         `bun:"part_category_id,notnull" json:"part_category_id"`
	PartCategory   *PartCategory `bun:"rel:belongs-to,join:part_category_id=id" json:"part_category,omitempty"`
	PriceCents     int64         `bun:"price_cents,notnull" json:"price_cents"`
	StockQuantity  int           `bun:"stock_quantity,notnull,default:0" json:"stock_quantity"`
	IsActive       bool          `bun:"is_active,notnull,default:true" json:"is_active"`
	IsFeatured     bool          `bun:"is_featured,notnull,default:false" json:"is_featured"`
	CreatedAt      time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time     `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Models lists the catalog tables in creation order.
func Models() []any {
	return []any{
		(*Brand)(nil),
		(*VehicleModel)(nil),
		(*PartCategory)(nil),
		(*Product)(nil),
	}
}

// Price renders the product price as a decimal string.
func (p *Product) Price() string {
	return FormatCents(p.PriceCents)
}
