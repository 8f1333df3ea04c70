package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/autozen/backend/internal/store"
	"github.com/autozen/backend/pkg/testsupport"
)

func newTestService(t *testing.T) (*Service, *testsupport.FakeCache, *testsupport.QueryCounter) {
	t.Helper()
	db, qc := testsupport.NewDB(t, Models()...)
	fc := testsupport.NewFakeCache()
	return New(db, fc, nil), fc, qc
}

func seedBrand(t *testing.T, svc *Service, name, slug string) *Brand {
	t.Helper()
	b := &Brand{Name: name, Slug: slug, IsActive: true}
	if err := svc.SaveBrand(context.Background(), b); err != nil {
		t.Fatalf("seed brand %s: %v", name, err)
	}
	return b
}

func seedProduct(t *testing.T, svc *Service, b *Brand, m *VehicleModel, c *PartCategory, name, slug, sku string, cents int64) *Product {
	t.Helper()
	p := &Product{
		Name:           name,
		Slug:           slug,
		SKU:            sku,
		BrandID:        b.ID,
		VehicleModelID: m.ID,
		PartCategoryID: c.ID,
		PriceCents:     cents,
		StockQuantity:  10,
		IsActive:       true,
	}
	if err := svc.SaveProduct(context.Background(), p); err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return p
}

func seedCatalog(t *testing.T, svc *Service) (*Brand, *VehicleModel, *PartCategory) {
	t.Helper()
	ctx := context.Background()
	b := seedBrand(t, svc, "BMW", "bmw")
	m := &VehicleModel{Name: "3 Series", Slug: "3-series", BrandID: b.ID, IsActive: true}
	if err := svc.SaveModel(ctx, m); err != nil {
		t.Fatalf("seed model: %v", err)
	}
	c := &PartCategory{Name: "Brakes", Slug: "brakes", IsActive: true}
	if err := svc.SaveCategory(ctx, c); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return b, m, c
}

func TestBrandByIDCachesSecondRead(t *testing.T) {
	svc, fc, qc := newTestService(t)
	ctx := context.Background()
	b := seedBrand(t, svc, "BMW", "bmw")
	qc.Reset()
	fc.Reset()

	first, err := svc.BrandByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := svc.BrandByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if first.Name != "BMW" || second.Name != "BMW" {
		t.Errorf("expected BMW but got %q / %q", first.Name, second.Name)
	}
	if got := qc.Selects(); got != 1 {
		t.Errorf("expected 1 select across two reads but got %d", got)
	}
	if got := fc.Hits(); got != 1 {
		t.Errorf("expected 1 cache hit but got %d", got)
	}
}

func TestBrandIDAndSlugKeysAreIndependent(t *testing.T) {
	svc, fc, _ := newTestService(t)
	ctx := context.Background()
	b := seedBrand(t, svc, "Toyota", "toyota")

	if _, err := svc.BrandByID(ctx, b.ID); err != nil {
		t.Fatalf("read by id: %v", err)
	}
	if fc.Contains(brandSlugKey("toyota")) {
		t.Error("expected slug key to stay cold after an id read")
	}
	if _, err := svc.BrandBySlug(ctx, "toyota"); err != nil {
		t.Fatalf("read by slug: %v", err)
	}
	if !fc.Contains(brandKey(b.ID)) || !fc.Contains(brandSlugKey("toyota")) {
		t.Error("expected both id and slug keys populated")
	}
}

func TestSaveBrandInvalidatesFanout(t *testing.T) {
	svc, fc, _ := newTestService(t)
	ctx := context.Background()
	b := seedBrand(t, svc, "Honda", "honda")

	if _, err := svc.BrandByID(ctx, b.ID); err != nil {
		t.Fatalf("warm id key: %v", err)
	}
	if _, err := svc.BrandBySlug(ctx, "honda"); err != nil {
		t.Fatalf("warm slug key: %v", err)
	}
	if _, err := svc.ActiveBrands(ctx); err != nil {
		t.Fatalf("warm list key: %v", err)
	}

	b.Name = "Honda Motor"
	if err := svc.SaveBrand(ctx, b); err != nil {
		t.Fatalf("update: %v", err)
	}
	for _, key := range []string{brandKey(b.ID), brandSlugKey("honda"), brandListKey()} {
		if fc.Contains(key) {
			t.Errorf("expected %s invalidated after update", key)
		}
	}

	got, err := svc.BrandByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if got.Name != "Honda Motor" {
		t.Errorf("expected Honda Motor but got %q", got.Name)
	}
}

func TestActiveBrandsFiltersAndOrders(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedBrand(t, svc, "Toyota", "toyota")
	seedBrand(t, svc, "Audi", "audi")
	inactive := &Brand{Name: "Saab", Slug: "saab", IsActive: false}
	if err := svc.SaveBrand(ctx, inactive); err != nil {
		t.Fatalf("seed inactive: %v", err)
	}

	brands, err := svc.ActiveBrands(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(brands) != 2 {
		t.Fatalf("expected 2 active brands but got %d", len(brands))
	}
	if brands[0].Name != "Audi" || brands[1].Name != "Toyota" {
		t.Errorf("expected name order Audi,Toyota but got %s,%s", brands[0].Name, brands[1].Name)
	}
}

func TestModelSaveInvalidatesBrandFilteredList(t *testing.T) {
	svc, fc, _ := newTestService(t)
	ctx := context.Background()
	b, m, _ := seedCatalog(t, svc)

	if _, err := svc.ActiveModels(ctx, 0); err != nil {
		t.Fatalf("warm full list: %v", err)
	}
	if _, err := svc.ActiveModels(ctx, b.ID); err != nil {
		t.Fatalf("warm brand list: %v", err)
	}

	m.Name = "3 Series Touring"
	if err := svc.SaveModel(ctx, m); err != nil {
		t.Fatalf("update model: %v", err)
	}
	if fc.Contains(modelListKey()) {
		t.Error("expected full model list invalidated")
	}
	if fc.Contains(modelListForBrandKey(b.ID)) {
		t.Error("expected brand-filtered model list invalidated")
	}

	models, err := svc.ActiveModels(ctx, b.ID)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if len(models) != 1 || models[0].Name != "3 Series Touring" {
		t.Errorf("expected updated model name but got %+v", models)
	}
	if models[0].Brand == nil || models[0].Brand.Slug != "bmw" {
		t.Error("expected brand relation loaded")
	}
}

func TestSubcategoriesInvalidatedThroughParent(t *testing.T) {
	svc, fc, _ := newTestService(t)
	ctx := context.Background()
	parent := &PartCategory{Name: "Engine", Slug: "engine", IsActive: true}
	if err := svc.SaveCategory(ctx, parent); err != nil {
		t.Fatalf("seed parent: %v", err)
	}
	child := &PartCategory{Name: "Filters", Slug: "filters", ParentID: &parent.ID, IsActive: true}
	if err := svc.SaveCategory(ctx, child); err != nil {
		t.Fatalf("seed child: %v", err)
	}

	subs, err := svc.Subcategories(ctx, parent.ID)
	if err != nil {
		t.Fatalf("subcategories: %v", err)
	}
	if len(subs) != 1 || subs[0].Name != "Filters" {
		t.Fatalf("expected one subcategory Filters but got %+v", subs)
	}

	child.Name = "Oil Filters"
	if err := svc.SaveCategory(ctx, child); err != nil {
		t.Fatalf("update child: %v", err)
	}
	if fc.Contains(categoryListForParentKey(parent.ID)) {
		t.Error("expected parent subcategory list invalidated by child update")
	}
}

func TestProductLookupsAndNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b, m, c := seedCatalog(t, svc)
	seedProduct(t, svc, b, m, c, "Brake Pad Set", "brake-pad-set", "BP-100", 5499)

	bySlug, err := svc.ProductBySlug(ctx, "brake-pad-set")
	if err != nil {
		t.Fatalf("by slug: %v", err)
	}
	bySKU, err := svc.ProductBySKU(ctx, "BP-100")
	if err != nil {
		t.Fatalf("by sku: %v", err)
	}
	if bySlug.ID != bySKU.ID {
		t.Errorf("expected slug and sku lookups to agree but got %d vs %d", bySlug.ID, bySKU.ID)
	}
	if bySlug.Price() != "54.99" {
		t.Errorf("expected price 54.99 but got %s", bySlug.Price())
	}
	if bySlug.Brand == nil || bySlug.PartCategory == nil {
		t.Error("expected relations loaded on product read")
	}

	if _, err := svc.ProductByID(ctx, 9999); !store.NotFound(err) {
		t.Errorf("expected not found but got %v", err)
	}
}

func TestRepeatedMissIsNotCached(t *testing.T) {
	svc, fc, qc := newTestService(t)
	ctx := context.Background()
	qc.Reset()

	for i := 0; i < 3; i++ {
		if _, err := svc.ProductByID(ctx, 42); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("read %d: expected not found but got %v", i, err)
		}
	}
	if got := qc.Selects(); got != 3 {
		t.Errorf("expected every miss to hit the store, got %d selects", got)
	}
	if fc.Len() != 0 {
		t.Errorf("expected no cache entries after misses but got %d", fc.Len())
	}
}

func TestSearchProductsSanitizesAndCaches(t *testing.T) {
	svc, fc, qc := newTestService(t)
	ctx := context.Background()
	b, m, c := seedCatalog(t, svc)
	seedProduct(t, svc, b, m, c, "Brake Pad Set", "brake-pad-set", "BP-100", 5499)
	seedProduct(t, svc, b, m, c, "Air Filter", "air-filter", "AF-200", 1299)
	qc.Reset()
	fc.Reset()

	results, err := svc.SearchProducts(ctx, "  Brake ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].SKU != "BP-100" {
		t.Fatalf("expected the brake pad set but got %+v", results)
	}
	if !fc.Contains(searchKey("brake")) {
		t.Error("expected search cached under the sanitized term")
	}

	if _, err := svc.SearchProducts(ctx, "brake"); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if got := qc.Selects(); got != 1 {
		t.Errorf("expected second search served from cache, got %d selects", got)
	}
}

func TestSearchProductsEmptyTermBypassesCache(t *testing.T) {
	svc, fc, qc := newTestService(t)
	ctx := context.Background()
	qc.Reset()

	if _, err := svc.SearchProducts(ctx, "!!!"); err != nil {
		t.Fatalf("search: %v", err)
	}
	if _, err := svc.SearchProducts(ctx, "!!!"); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if got := qc.Selects(); got != 2 {
		t.Errorf("expected unsanitizable query to bypass the cache, got %d selects", got)
	}
	if fc.Len() != 0 {
		t.Errorf("expected no cache entries but got %d", fc.Len())
	}
}

func TestSaveProductClearsSearchResults(t *testing.T) {
	svc, fc, _ := newTestService(t)
	ctx := context.Background()
	b, m, c := seedCatalog(t, svc)
	p := seedProduct(t, svc, b, m, c, "Brake Pad Set", "brake-pad-set", "BP-100", 5499)

	if _, err := svc.SearchProducts(ctx, "brake"); err != nil {
		t.Fatalf("warm search: %v", err)
	}
	p.PriceCents = 5999
	if err := svc.SaveProduct(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	if fc.Contains(searchKey("brake")) {
		t.Error("expected search results invalidated by product write")
	}
}

func TestBulkAdjustPrices(t *testing.T) {
	svc, fc, _ := newTestService(t)
	ctx := context.Background()
	b, m, c := seedCatalog(t, svc)
	p1 := seedProduct(t, svc, b, m, c, "Brake Pad Set", "brake-pad-set", "BP-100", 1000)
	p2 := seedProduct(t, svc, b, m, c, "Brake Disc", "brake-disc", "BD-300", 2000)

	if _, err := svc.FeaturedProducts(ctx); err != nil {
		t.Fatalf("warm featured: %v", err)
	}

	adjusted, err := svc.BulkAdjustPrices(ctx, c.ID, 10)
	if err != nil {
		t.Fatalf("bulk adjust: %v", err)
	}
	if adjusted != 2 {
		t.Errorf("expected 2 products adjusted but got %d", adjusted)
	}
	if fc.Len() != 0 {
		t.Errorf("expected all catalog keys dropped but %d remain", fc.Len())
	}

	got1, err := svc.ProductByID(ctx, p1.ID)
	if err != nil {
		t.Fatalf("re-read p1: %v", err)
	}
	got2, err := svc.ProductByID(ctx, p2.ID)
	if err != nil {
		t.Fatalf("re-read p2: %v", err)
	}
	if got1.PriceCents != 1100 || got2.PriceCents != 2200 {
		t.Errorf("expected 1100/2200 cents but got %d/%d", got1.PriceCents, got2.PriceCents)
	}
}

func TestDeleteBrandInvalidatesAndRemoves(t *testing.T) {
	svc, fc, _ := newTestService(t)
	ctx := context.Background()
	b := seedBrand(t, svc, "Fiat", "fiat")
	if _, err := svc.BrandByID(ctx, b.ID); err != nil {
		t.Fatalf("warm: %v", err)
	}

	if err := svc.DeleteBrand(ctx, b); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if fc.Contains(brandKey(b.ID)) {
		t.Error("expected brand key invalidated on delete")
	}
	if _, err := svc.BrandByID(ctx, b.ID); !store.NotFound(err) {
		t.Errorf("expected not found after delete but got %v", err)
	}
}
