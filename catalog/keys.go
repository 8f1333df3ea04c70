package catalog

import "github.com/autozen/backend/cache"

// Key prefixes per entity kind. Collision safety across kinds comes from
// the prefix alone; within a kind the id/slug/SKU is unique in the store.
const (
	brandPrefix    = "products_brand"
	modelPrefix    = "products_model"
	categoryPrefix = "products_category"
	productPrefix  = "products_product"
	searchPrefix   = "products_search"
)

func brandKey(id int64) string        { return cache.Key(brandPrefix, cache.ID(id)) }
func brandSlugKey(slug string) string { return cache.Key(brandPrefix, "slug", slug) }
func brandListKey() string            { return cache.Key(brandPrefix, "list") }

func modelKey(id int64) string        { return cache.Key(modelPrefix, cache.ID(id)) }
func modelSlugKey(slug string) string { return cache.Key(modelPrefix, "slug", slug) }
func modelListKey() string            { return cache.Key(modelPrefix, "list") }
func modelListForBrandKey(brandID int64) string {
	return cache.Key(modelPrefix, "list", "brand", cache.ID(brandID))
}

func categoryKey(id int64) string        { return cache.Key(categoryPrefix, cache.ID(id)) }
func categorySlugKey(slug string) string { return cache.Key(categoryPrefix, "slug", slug) }
func categoryListKey() string            { return cache.Key(categoryPrefix, "list") }
func categoryListForParentKey(parentID int64) string {
	return cache.Key(categoryPrefix, "list", "parent", cache.ID(parentID))
}

func productKey(id int64) string        { return cache.Key(productPrefix, cache.ID(id)) }
func productSlugKey(slug string) string { return cache.Key(productPrefix, "slug", slug) }
func productSKUKey(sku string) string   { return cache.Key(productPrefix, "sku", sku) }
func featuredProductsKey() string       { return cache.Key(productPrefix, "featured") }
func searchKey(term string) string      { return cache.Key(searchPrefix, term) }

// brandFanout enumerates every key a brand write can make stale: the
// brand's own keys, the global brand list and the brand-filtered model
// list.
func brandFanout(b *Brand) []string {
	return []string{
		brandKey(b.ID),
		brandSlugKey(b.Slug),
		brandListKey(),
		modelListForBrandKey(b.ID),
	}
}

// modelFanout covers the model's own keys plus both model lists.
func modelFanout(m *VehicleModel) []string {
	return []string{
		modelKey(m.ID),
		modelSlugKey(m.Slug),
		modelListKey(),
		modelListForBrandKey(m.BrandID),
	}
}

// categoryFanout covers the category's own keys, the global list, the
// parent's subcategory list and the category's own subtree list; a
// category write changes both its parent's view and its children's view.
func categoryFanout(c *PartCategory) []string {
	keys := []string{
		categoryKey(c.ID),
		categorySlugKey(c.Slug),
		categoryListKey(),
		categoryListForParentKey(c.ID),
	}
	if c.ParentID != nil {
		keys = append(keys, categoryListForParentKey(*c.ParentID))
	}
	return keys
}

// productFanout covers every addressable key of the product plus the
// featured list it may appear in. Search keys are handled by pattern
// deletion since the terms that matched the product cannot be enumerated.
func productFanout(p *Product) []string {
	return []string{
		productKey(p.ID),
		productSlugKey(p.Slug),
		productSKUKey(p.SKU),
		featuredProductsKey(),
	}
}
