package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/autozen/backend/cache"
	"github.com/autozen/backend/internal/store"
)

// Service exposes the cache-aware catalog accessors and write paths.
type Service struct {
	db    bun.IDB
	cache cache.Cache
	inv   *cache.Invalidator
	log   *zap.Logger
}

// New wires a catalog service to the store and cache.
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

// BrandByID returns a brand by primary key, read through the cache.
func (s *Service) BrandByID(ctx context.Context, id int64) (*Brand, error) {
	return cache.GetOrFetch(ctx, s.cache, brandKey(id), cache.TTLBrand,
		func(ctx context.Context) (*Brand, error) {
			b := new(Brand)
			if err := s.db.NewSelect().Model(b).Where("b.id = ?", id).Scan(ctx); err != nil {
				return nil, store.AsNotFound(err)
			}
			return b, nil
		})
}

// BrandBySlug returns a brand by slug, read through the cache under a key
// distinct from the id key.
func (s *Service) BrandBySlug(ctx context.Context, slug string) (*Brand, error) {
	return cache.GetOrFetch(ctx, s.cache, brandSlugKey(slug), cache.TTLBrand,
		func(ctx context.Context) (*Brand, error) {
			b := new(Brand)
			if err := s.db.NewSelect().Model(b).Where("b.slug = ?", slug).Scan(ctx); err != nil {
				return nil, store.AsNotFound(err)
			}
			return b, nil
		})
}

// ActiveBrands returns all active brands ordered by name.
func (s *Service) ActiveBrands(ctx context.Context) ([]*Brand, error) {
	return cache.GetOrFetch(ctx, s.cache, brandListKey(), cache.TTLBrand,
		func(ctx context.Context) ([]*Brand, error) {
			var brands []*Brand
			err := s.db.NewSelect().Model(&brands).
				Where("b.is_active = ?", true).
				Order("b.name ASC").
				Scan(ctx)
			return brands, err
		})
}

// SaveBrand creates or updates a brand, then invalidates its fan-out.
func (s *Service) SaveBrand(ctx context.Context, b *Brand) error {
	var err error
	if b.ID == 0 {
		_, err = s.db.NewInsert().Model(b).Exec(ctx)
	} else {
		b.UpdatedAt = time.Now()
		_, err = s.db.NewUpdate().Model(b).ExcludeColumn("created_at").WherePK().Exec(ctx)
	}
	if err != nil {
		return err
	}
	s.inv.Invalidate(ctx, brandFanout(b)...)
	return nil
}

// DeleteBrand removes a brand and invalidates its fan-out.
func (s *Service) DeleteBrand(ctx context.Context, b *Brand) error {
	if _, err := s.db.NewDelete().Model(b).WherePK().Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, brandFanout(b)...)
	return nil
}

// ModelByID returns a vehicle model with its brand loaded.
func (s *Service) ModelByID(ctx context.Context, id int64) (*VehicleModel, error) {
	return cache.GetOrFetch(ctx, s.cache, modelKey(id), cache.TTLBrand,
		func(ctx context.Context) (*VehicleModel, error) {
			m := new(VehicleModel)
			if err := s.db.NewSelect().Model(m).
				Relation("Brand").
				Where("vm.id = ?", id).
				Scan(ctx); err != nil {
				return nil, store.AsNotFound(err)
			}
			return m, nil
		})
}

// ModelBySlug returns a vehicle model by slug with its brand loaded.
func (s *Service) ModelBySlug(ctx context.Context, slug string) (*VehicleModel, error) {
	return cache.GetOrFetch(ctx, s.cache, modelSlugKey(slug), cache.TTLBrand,
		func(ctx context.Context) (*VehicleModel, error) {
			m := new(VehicleModel)
			if err := s.db.NewSelect().Model(m).
				Relation("Brand").
				Where("vm.slug = ?", slug).
				Scan(ctx); err != nil {
				return nil, store.AsNotFound(err)
			}
			return m, nil
		})
}

// ActiveModels returns active vehicle models, optionally filtered by
// brand (brandID 0 means all brands). The two filters cache under
// separate keys.
func (s *Service) ActiveModels(ctx context.Context, brandID int64) ([]*VehicleModel, error) {
	key := modelListKey()
	if brandID != 0 {
		key = modelListForBrandKey(brandID)
	}
	return cache.GetOrFetch(ctx, s.cache, key, cache.TTLBrand,
		func(ctx context.Context) ([]*VehicleModel, error) {
			var models []*VehicleModel
			q := s.db.NewSelect().Model(&models).
				Relation("Brand").
				Where("vm.is_active = ?", true)
			if brandID != 0 {
				q = q.Where("vm.brand_id = ?", brandID)
			}
			err := q.Order("vm.brand_id ASC", "vm.name ASC").Scan(ctx)
			return models, err
		})
}

// SaveModel creates or updates a vehicle model, then invalidates its
// fan-out including the parent brand's filtered list.
func (s *Service) SaveModel(ctx context.Context, m *VehicleModel) error {
	var err error
	if m.ID == 0 {
		_, err = s.db.NewInsert().Model(m).Exec(ctx)
	} else {
		m.UpdatedAt = time.Now()
		_, err = s.db.NewUpdate().Model(m).ExcludeColumn("created_at").WherePK().Exec(ctx)
	}
	if err != nil {
		return err
	}
	s.inv.Invalidate(ctx, modelFanout(m)...)
	return nil
}

// DeleteModel removes a vehicle model and invalidates its fan-out.
func (s *Service) DeleteModel(ctx context.Context, m *VehicleModel) error {
	if _, err := s.db.NewDelete().Model(m).WherePK().Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, modelFanout(m)...)
	return nil
}

// CategoryByID returns a part category by primary key.
func (s *Service) CategoryByID(ctx context.Context, id int64) (*PartCategory, error) {
	return cache.GetOrFetch(ctx, s.cache, categoryKey(id), cache.TTLBrand,
		func(ctx context.Context) (*PartCategory, error) {
			c := new(PartCategory)
			if err := s.db.NewSelect().Model(c).Where("pc.id = ?", id).Scan(ctx); err != nil {
				return nil, store.AsNotFound(err)
			}
			return c, nil
		})
}

// CategoryBySlug returns a part category by slug.
func (s *Service) CategoryBySlug(ctx context.Context, slug string) (*PartCategory, error) {
	return cache.GetOrFetch(ctx, s.cache, categorySlugKey(slug), cache.TTLBrand,
		func(ctx context.Context) (*PartCategory, error) {
			c := new(PartCategory)
			if err := s.db.NewSelect().Model(c).Where("pc.slug = ?", slug).Scan(ctx); err != nil {
				return nil, store.AsNotFound(err)
			}
			return c, nil
		})
}

// ActiveCategories returns every active category ordered by name.
func (s *Service) ActiveCategories(ctx context.Context) ([]*PartCategory, error) {
	return cache.GetOrFetch(ctx, s.cache, categoryListKey(), cache.TTLBrand,
		func(ctx context.Context) ([]*PartCategory, error) {
			var cats []*PartCategory
			err := s.db.NewSelect().Model(&cats).
				Where("pc.is_active = ?", true).
				Order("pc.name ASC").
				Scan(ctx)
			return cats, err
		})
}

// Subcategories returns the active children of a category.
func (s *Service) Subcategories(ctx context.Context, parentID int64) ([]*PartCategory, error) {
	return cache.GetOrFetch(ctx, s.cache, categoryListForParentKey(parentID), cache.TTLBrand,
		func(ctx context.Context) ([]*PartCategory, error) {
			var cats []*PartCategory
			err := s.db.NewSelect().Model(&cats).
				Where("pc.is_active = ?", true).
				Where("pc.parent_id = ?", parentID).
				Order("pc.name ASC").
				Scan(ctx)
			return cats, err
		})
}

// SaveCategory creates or updates a part category. The fan-out covers the
// parent's subcategory list and the category's own subtree list.
func (s *Service) SaveCategory(ctx context.Context, c *PartCategory) error {
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
	s.inv.Invalidate(ctx, categoryFanout(c)...)
	return nil
}

// DeleteCategory removes a part category and invalidates its fan-out.
func (s *Service) DeleteCategory(ctx context.Context, c *PartCategory) error {
	if _, err := s.db.NewDelete().Model(c).WherePK().Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, categoryFanout(c)...)
	return nil
}

// ProductByID returns a product with its relations loaded.
func (s *Service) ProductByID(ctx context.Context, id int64) (*Product, error) {
	return cache.GetOrFetch(ctx, s.cache, productKey(id), cache.TTLProduct,
		func(ctx context.Context) (*Product, error) {
			return s.fetchProduct(ctx, "p.id = ?", id)
		})
}

// ProductBySlug returns a product by slug.
func (s *Service) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	return cache.GetOrFetch(ctx, s.cache, productSlugKey(slug), cache.TTLProduct,
		func(ctx context.Context) (*Product, error) {
			return s.fetchProduct(ctx, "p.slug = ?", slug)
		})
}

// ProductBySKU returns a product by SKU.
func (s *Service) ProductBySKU(ctx context.Context, sku string) (*Product, error) {
	return cache.GetOrFetch(ctx, s.cache, productSKUKey(sku), cache.TTLProduct,
		func(ctx context.Context) (*Product, error) {
			return s.fetchProduct(ctx, "p.sku = ?", sku)
		})
}

func (s *Service) fetchProduct(ctx context.Context, where string, arg any) (*Product, error) {
	p := new(Product)
	if err := s.db.NewSelect().Model(p).
		Relation("Brand").
		Relation("VehicleModel").
		Relation("PartCategory").
		Where(where, arg).
		Scan(ctx); err != nil {
		return nil, store.AsNotFound(err)
	}
	return p, nil
}

// FeaturedProducts returns active featured products, newest first.
func (s *Service) FeaturedProducts(ctx context.Context) ([]*Product, error) {
	return cache.GetOrFetch(ctx, s.cache, featuredProductsKey(), cache.TTLProduct,
		func(ctx context.Context) ([]*Product, error) {
			var products []*Product
			err := s.db.NewSelect().Model(&products).
				Where("p.is_active = ?", true).
				Where("p.is_featured = ?", true).
				Order("p.created_at DESC").
				Scan(ctx)
			return products, err
		})
}

// NewArrivals returns the most recently added active products. The result
// feeds the landing bundle, which carries its own cache entry, so this
// read goes straight to the store.
func (s *Service) NewArrivals(ctx context.Context, limit int) ([]*Product, error) {
	var products []*Product
	err := s.db.NewSelect().Model(&products).
		Where("p.is_active = ?", true).
		Order("p.created_at DESC").
		Limit(limit).
		Scan(ctx)
	return products, err
}

// SearchProducts matches active products by name, description or OEM
// number. The query is sanitized into a bounded key segment; a query that
// sanitizes to nothing bypasses the cache.
func (s *Service) SearchProducts(ctx context.Context, query string) ([]*Product, error) {
	term := cache.SanitizeTerm(query)
	if term == "" {
		return s.searchProducts(ctx, query)
	}
	return cache.GetOrFetch(ctx, s.cache, searchKey(term), cache.TTLProduct,
		func(ctx context.Context) ([]*Product, error) {
			return s.searchProducts(ctx, query)
		})
}

func (s *Service) searchProducts(ctx context.Context, query string) ([]*Product, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var products []*Product
	err := s.db.NewSelect().Model(&products).
		Where("p.is_active = ?", true).
		Where("(lower(p.name) LIKE ? OR lower(p.description) LIKE ? OR lower(p.oem_number) LIKE ?)",
			pattern, pattern, pattern).
		Order("p.name ASC").
		Scan(ctx)
	return products, err
}

// SaveProduct creates or updates a product, invalidating its addressable
// keys, the featured list and every search result it may appear in.
func (s *Service) SaveProduct(ctx context.Context, p *Product) error {
	var err error
	if p.ID == 0 {
		_, err = s.db.NewInsert().Model(p).Exec(ctx)
	} else {
		p.UpdatedAt = time.Now()
		_, err = s.db.NewUpdate().Model(p).ExcludeColumn("created_at").WherePK().Exec(ctx)
	}
	if err != nil {
		return err
	}
	s.inv.Invalidate(ctx, productFanout(p)...)
	s.inv.InvalidatePattern(ctx, searchPrefix)
	return nil
}

// DeleteProduct removes a product and invalidates its fan-out.
func (s *Service) DeleteProduct(ctx context.Context, p *Product) error {
	if _, err := s.db.NewDelete().Model(p).WherePK().Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, productFanout(p)...)
	s.inv.InvalidatePattern(ctx, searchPrefix)
	return nil
}

// BulkAdjustPrices applies a percentage change to every product in a
// category, one update per row without a wrapping transaction, matching
// the admin bulk-edit path this is ported from. A partial failure leaves
// earlier rows adjusted.
func (s *Service) BulkAdjustPrices(ctx context.Context, categoryID int64, percent int) (int, error) {
	var products []*Product
	if err := s.db.NewSelect().Model(&products).
		Where("p.part_category_id = ?", categoryID).
		Scan(ctx); err != nil {
		return 0, err
	}

	adjusted := 0
	for _, p := range products {
		p.PriceCents += p.PriceCents * int64(percent) / 100
		p.UpdatedAt = time.Now()
		if _, err := s.db.NewUpdate().Model(p).
			Column("price_cents", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			s.InvalidateAll(ctx)
			return adjusted, err
		}
		adjusted++
	}
	s.InvalidateAll(ctx)
	return adjusted, nil
}

// InvalidateAll drops every catalog cache entry. Bulk operations call it
// because they cannot enumerate the affected keys.
func (s *Service) InvalidateAll(ctx context.Context) {
	s.inv.InvalidatePattern(ctx,
		brandPrefix,
		modelPrefix,
		categoryPrefix,
		productPrefix,
		searchPrefix,
	)
}
