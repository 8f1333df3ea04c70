package landing

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/autozen/backend/catalog"
)

// HeroBanner is one slide of the landing carousel. Its featured vehicles
// render inside the slide, so a vehicle write invalidates through the
// banner's bundle.
type HeroBanner struct {
	bun.BaseModel `bun:"table:hero_banners,alias:hb"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Title     string    `bun:"title,notnull"`
	Subtitle  string    `bun:"subtitle"`
	ImageURL  string    `bun:"image_url"`
	CTALabel  string    `bun:"cta_label"`
	CTAURL    string    `bun:"cta_url"`
	SortOrder int       `bun:"sort_order,notnull,default:0"`
	IsActive  bool      `bun:"is_active,notnull,default:true"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	FeaturedVehicles []*FeaturedVehicle `bun:"rel:has-many,join:id=hero_banner_id"`
}

// FeaturedVehicle is a vehicle spotlighted on a hero banner.
type FeaturedVehicle struct {
	bun.BaseModel `bun:"table:featured_vehicles,alias:fv"`

	ID           int64     `bun:"id,pk,autoincrement"`
	HeroBannerID int64     `bun:"hero_banner_id,notnull"`
	BrandID      int64     `bun:"brand_id,notnull"`
	Name         string    `bun:"name,notnull"`
	ImageURL     string    `bun:"image_url"`
	SortOrder    int       `bun:"sort_order,notnull,default:0"`
	IsActive     bool      `bun:"is_active,notnull,default:true"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	HeroBanner *HeroBanner    `bun:"rel:belongs-to,join:hero_banner_id=id"`
	Brand      *catalog.Brand `bun:"rel:belongs-to,join:brand_id=id"`
}

// CategorySection points a landing tile at a part category.
type CategorySection struct {
	bun.BaseModel `bun:"table:category_sections,alias:cs"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Title      string    `bun:"title,notnull"`
	CategoryID int64     `bun:"category_id,notnull"`
	ImageURL   string    `bun:"image_url"`
	SortOrder  int       `bun:"sort_order,notnull,default:0"`
	IsActive   bool      `bun:"is_active,notnull,default:true"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	Category *catalog.PartCategory `bun:"rel:belongs-to,join:category_id=id"`
}

// AdvertisementBanner is a promo shown only inside its date window.
type AdvertisementBanner struct {
	bun.BaseModel `bun:"table:advertisement_banners,alias:ab"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Title     string    `bun:"title,notnull"`
	ImageURL  string    `bun:"image_url"`
	TargetURL string    `bun:"target_url"`
	StartsAt  time.Time `bun:"starts_at,notnull"`
	EndsAt    time.Time `bun:"ends_at,notnull"`
	IsActive  bool      `bun:"is_active,notnull,default:true"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Testimonial is a customer quote shown on the landing page.
type Testimonial struct {
	bun.BaseModel `bun:"table:testimonials,alias:tm"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Author    string    `bun:"author,notnull"`
	Quote     string    `bun:"quote,notnull"`
	Rating    int       `bun:"rating,notnull,default:5"`
	SortOrder int       `bun:"sort_order,notnull,default:0"`
	IsActive  bool      `bun:"is_active,notnull,default:true"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// SiteConfiguration is the single-row store settings record.
type SiteConfiguration struct {
	bun.BaseModel `bun:"table:site_configurations,alias:sc"`

	ID              int64     `bun:"id,pk,autoincrement"`
	SiteName        string    `bun:"site_name,notnull"`
	Tagline         string    `bun:"tagline"`
	SupportEmail    string    `bun:"support_email"`
	SupportPhone    string    `bun:"support_phone"`
	Currency        string    `bun:"currency,notnull,default:'USD'"`
	MaintenanceMode bool      `bun:"maintenance_mode,notnull,default:false"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Content is the assembled landing payload, cached as one bundle.
type Content struct {
	HeroBanners      []*HeroBanner          `msgpack:"hero_banners"`
	CategorySections []*CategorySection     `msgpack:"category_sections"`
	Advertisements   []*AdvertisementBanner `msgpack:"advertisements"`
	Testimonials     []*Testimonial         `msgpack:"testimonials"`
	FeaturedBrands   []*catalog.Brand       `msgpack:"featured_brands"`
	FeaturedProducts []*catalog.Product     `msgpack:"featured_products"`
	NewArrivals      []*catalog.Product     `msgpack:"new_arrivals"`
}

// Models lists the landing tables in creation order.
func Models() []any {
	return []any{
		(*HeroBanner)(nil),
		(*FeaturedVehicle)(nil),
		(*CategorySection)(nil),
		(*AdvertisementBanner)(nil),
		(*Testimonial)(nil),
		(*SiteConfiguration)(nil),
	}
}
