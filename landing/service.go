package landing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/autozen/backend/cache"
	"github.com/autozen/backend/catalog"
)

const (
	contentKey          = "landing_content"
	siteConfigKey       = "landing_site_config"
	heroBannersKey      = "landing_hero_banners"
	categorySectionsKey = "landing_category_sections"
	advertisementsKey   = "landing_advertisements"
	testimonialsKey     = "landing_testimonials"

	newArrivalsLimit = 8
)

// defaultSiteName seeds the configuration row on first read.
const defaultSiteName = "AutoZen"

// Service assembles the landing page content. Each section caches under
// its own key and the assembled bundle under another, so a section write
// invalidates both.
type Service struct {
	db      bun.IDB
	cache   cache.Cache
	inv     *cache.Invalidator
	catalog *catalog.Service
	log     *zap.Logger

	// now is swapped in tests to pin the advertisement window.
	now func() time.Time
}

// New wires a landing service to the store, cache and catalog.
func New(db bun.IDB, c cache.Cache, cat *catalog.Service, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:      db,
		cache:   c,
		inv:     cache.NewInvalidator(c, log),
		catalog: cat,
		log:     log,
		now:     time.Now,
	}
}

// Content returns the assembled landing bundle: hero carousel, category
// tiles, running promos, testimonials and the catalog highlights. Each
// section remains independently cached underneath.
func (s *Service) Content(ctx context.Context) (*Content, error) {
	return cache.GetOrFetch(ctx, s.cache, contentKey, cache.TTLContent,
		func(ctx context.Context) (*Content, error) {
			content := new(Content)
			var err error
			if content.HeroBanners, err = s.HeroBanners(ctx); err != nil {
				return nil, err
			}
			if content.CategorySections, err = s.CategorySections(ctx); err != nil {
				return nil, err
			}
			if content.Advertisements, err = s.Advertisements(ctx); err != nil {
				return nil, err
			}
			if content.Testimonials, err = s.Testimonials(ctx); err != nil {
				return nil, err
			}
			if content.FeaturedBrands, err = s.catalog.ActiveBrands(ctx); err != nil {
				return nil, err
			}
			if content.FeaturedProducts, err = s.catalog.FeaturedProducts(ctx); err != nil {
				return nil, err
			}
			if content.NewArrivals, err = s.catalog.NewArrivals(ctx, newArrivalsLimit); err != nil {
				return nil, err
			}
			return content, nil
		})
}

// HeroBanners returns the active carousel slides with their spotlighted
// vehicles nested in display order.
func (s *Service) HeroBanners(ctx context.Context) ([]*HeroBanner, error) {
	return cache.GetOrFetch(ctx, s.cache, heroBannersKey, cache.TTLContent,
		func(ctx context.Context) ([]*HeroBanner, error) {
			var banners []*HeroBanner
			err := s.db.NewSelect().Model(&banners).
				Relation("FeaturedVehicles", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("fv.is_active = ?", true).Order("fv.sort_order ASC")
				}).
				Where("hb.is_active = ?", true).
				Order("hb.sort_order ASC").
				Scan(ctx)
			return banners, err
		})
}

// CategorySections returns the active category tiles with their
// categories loaded.
func (s *Service) CategorySections(ctx context.Context) ([]*CategorySection, error) {
	return cache.GetOrFetch(ctx, s.cache, categorySectionsKey, cache.TTLContent,
		func(ctx context.Context) ([]*CategorySection, error) {
			var sections []*CategorySection
			err := s.db.NewSelect().Model(&sections).
				Relation("Category").
				Where("cs.is_active = ?", true).
				Order("cs.sort_order ASC").
				Scan(ctx)
			return sections, err
		})
}

// Advertisements returns the promos whose window covers the current
// time. The window edge can lag by up to the content TTL.
func (s *Service) Advertisements(ctx context.Context) ([]*AdvertisementBanner, error) {
	return cache.GetOrFetch(ctx, s.cache, advertisementsKey, cache.TTLContent,
		func(ctx context.Context) ([]*AdvertisementBanner, error) {
			now := s.now()
			var promos []*AdvertisementBanner
			err := s.db.NewSelect().Model(&promos).
				Where("ab.is_active = ?", true).
				Where("ab.starts_at <= ?", now).
				Where("ab.ends_at >= ?", now).
				Order("ab.starts_at ASC").
				Scan(ctx)
			return promos, err
		})
}

// Testimonials returns the published customer quotes in display order.
func (s *Service) Testimonials(ctx context.Context) ([]*Testimonial, error) {
	return cache.GetOrFetch(ctx, s.cache, testimonialsKey, cache.TTLContent,
		func(ctx context.Context) ([]*Testimonial, error) {
			var quotes []*Testimonial
			err := s.db.NewSelect().Model(&quotes).
				Where("tm.is_active = ?", true).
				Order("tm.sort_order ASC").
				Scan(ctx)
			return quotes, err
		})
}

// SiteConfig returns the settings row, creating the defaults on first
// read. Settings change rarely, so they sit on the long cache tier.
func (s *Service) SiteConfig(ctx context.Context) (*SiteConfiguration, error) {
	return cache.GetOrFetch(ctx, s.cache, siteConfigKey, cache.TTLSiteConfig,
		func(ctx context.Context) (*SiteConfiguration, error) {
			cfg := new(SiteConfiguration)
			err := s.db.NewSelect().Model(cfg).Order("sc.id ASC").Limit(1).Scan(ctx)
			if err == nil {
				return cfg, nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, err
			}
			cfg = &SiteConfiguration{SiteName: defaultSiteName, Currency: "USD"}
			if _, err := s.db.NewInsert().Model(cfg).Exec(ctx); err != nil {
				return nil, err
			}
			return cfg, nil
		})
}

// UpdateSiteConfig persists the settings row and invalidates its key
// and the bundle that renders it.
func (s *Service) UpdateSiteConfig(ctx context.Context, cfg *SiteConfiguration) error {
	cfg.UpdatedAt = time.Now()
	if _, err := s.db.NewUpdate().Model(cfg).ExcludeColumn("created_at").WherePK().Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, siteConfigKey, contentKey)
	return nil
}

// SaveHeroBanner creates or updates a carousel slide.
func (s *Service) SaveHeroBanner(ctx context.Context, b *HeroBanner) error {
	return s.saveSection(ctx, b, b.ID == 0)
}

// SaveFeaturedVehicle creates or updates a spotlighted vehicle. The
// vehicle renders inside its banner, so the write invalidates the bundle
// the banner lives in.
func (s *Service) SaveFeaturedVehicle(ctx context.Context, v *FeaturedVehicle) error {
	return s.saveSection(ctx, v, v.ID == 0)
}

// SaveCategorySection creates or updates a category tile.
func (s *Service) SaveCategorySection(ctx context.Context, c *CategorySection) error {
	return s.saveSection(ctx, c, c.ID == 0)
}

// SaveAdvertisement creates or updates a promo banner.
func (s *Service) SaveAdvertisement(ctx context.Context, a *AdvertisementBanner) error {
	return s.saveSection(ctx, a, a.ID == 0)
}

// SaveTestimonial creates or updates a customer quote.
func (s *Service) SaveTestimonial(ctx context.Context, tm *Testimonial) error {
	return s.saveSection(ctx, tm, tm.ID == 0)
}

// DeleteSection removes any landing row and invalidates its section key
// and the bundle.
func (s *Service) DeleteSection(ctx context.Context, row any) error {
	if _, err := s.db.NewDelete().Model(row).WherePK().Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, sectionKey(row), contentKey)
	return nil
}

func (s *Service) saveSection(ctx context.Context, row any, isNew bool) error {
	var err error
	if isNew {
		_, err = s.db.NewInsert().Model(row).Exec(ctx)
	} else {
		_, err = s.db.NewUpdate().Model(row).ExcludeColumn("created_at").WherePK().Exec(ctx)
	}
	if err != nil {
		return err
	}
	s.inv.Invalidate(ctx, sectionKey(row), contentKey)
	return nil
}

// sectionKey maps a landing row to the section cache it renders in. A
// featured vehicle lives inside its banner, so it maps to the carousel.
func sectionKey(row any) string {
	switch row.(type) {
	case *HeroBanner, *FeaturedVehicle:
		return heroBannersKey
	case *CategorySection:
		return categorySectionsKey
	case *AdvertisementBanner:
		return advertisementsKey
	case *Testimonial:
		return testimonialsKey
	}
	return contentKey
}
