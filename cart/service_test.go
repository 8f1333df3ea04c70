package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/autozen/backend/catalog"
	"github.com/autozen/backend/internal/store"
	"github.com/autozen/backend/pkg/testsupport"
)

func newTestService(t *testing.T) (*Service, *testsupport.FakeCache, *testsupport.QueryCounter) {
	t.Helper()
	models := append(catalog.Models(), Models()...)
	db, qc := testsupport.NewDB(t, models...)
	fc := testsupport.NewFakeCache()
	return New(db, fc, nil), fc, qc
}

// seedProducts inserts the catalog rows the cart lines hang off without
// going through the catalog service, so cart tests only exercise cart keys.
func seedProducts(t *testing.T, svc *Service, products ...*catalog.Product) {
	t.Helper()
	ctx := context.Background()
	b := &catalog.Brand{Name: "BMW", Slug: "bmw", IsActive: true}
	if _, err := svc.db.NewInsert().Model(b).Exec(ctx); err != nil {
		t.Fatalf("seed brand: %v", err)
	}
	m := &catalog.VehicleModel{Name: "3 Series", Slug: "3-series", BrandID: b.ID, IsActive: true}
	c := &catalog.PartCategory{Name: "Brakes", Slug: "brakes", IsActive: true}
	for _, row := range []any{m, c} {
		if _, err := svc.db.NewInsert().Model(row).Exec(ctx); err != nil {
			t.Fatalf("seed catalog row: %v", err)
		}
	}
	for _, p := range products {
		p.BrandID = b.ID
		p.VehicleModelID = m.ID
		p.PartCategoryID = c.ID
		if _, err := svc.db.NewInsert().Model(p).Exec(ctx); err != nil {
			t.Fatalf("seed product %s: %v", p.Name, err)
		}
	}
}

func TestCartForUserCreatesOnce(t *testing.T) {
	svc, fc, qc := newTestService(t)
	ctx := context.Background()

	first, err := svc.CartForUser(ctx, 7)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected cart created with an id")
	}
	qc.Reset()

	second, err := svc.CartForUser(ctx, 7)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same cart %d but got %d", first.ID, second.ID)
	}
	if got := qc.Total(); got != 0 {
		t.Errorf("expected cached cart read, got %d queries", got)
	}
	if !fc.Contains(cartKey(7)) {
		t.Error("expected cart cached under the user key")
	}
}

func TestAddItemAggregates(t *testing.T) {
	svc, _, qc := newTestService(t)
	ctx := context.Background()
	pads := &catalog.Product{Name: "Brake Pad Set", Slug: "brake-pad-set", SKU: "BP-100", PriceCents: 5499, StockQuantity: 10, IsActive: true}
	discs := &catalog.Product{Name: "Brake Disc", Slug: "brake-disc", SKU: "BD-300", PriceCents: 2749, StockQuantity: 10, IsActive: true}
	seedProducts(t, svc, pads, discs)

	if _, err := svc.AddItem(ctx, 1, pads.ID, 1); err != nil {
		t.Fatalf("add pads: %v", err)
	}
	if _, err := svc.AddItem(ctx, 1, discs.ID, 2); err != nil {
		t.Fatalf("add discs: %v", err)
	}

	cart, err := svc.CartForUser(ctx, 1)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	sum, err := svc.Summary(ctx, cart.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.ItemsCount != 2 {
		t.Errorf("expected 2 lines but got %d", sum.ItemsCount)
	}
	if sum.TotalQuantity != 3 {
		t.Errorf("expected 3 units but got %d", sum.TotalQuantity)
	}
	if sum.SubtotalCents != 10997 {
		t.Errorf("expected subtotal 10997 but got %d", sum.SubtotalCents)
	}
	if got := sum.Subtotal(); got != "109.97" {
		t.Errorf("expected subtotal string 109.97 but got %s", got)
	}

	qc.Reset()
	if _, err := svc.Summary(ctx, cart.ID); err != nil {
		t.Fatalf("second summary: %v", err)
	}
	if got := qc.Selects(); got != 0 {
		t.Errorf("expected second summary served from cache, got %d selects", got)
	}
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	pads := &catalog.Product{Name: "Brake Pad Set", Slug: "brake-pad-set", SKU: "BP-100", PriceCents: 5499, StockQuantity: 5, IsActive: true}
	seedProducts(t, svc, pads)

	if _, err := svc.AddItem(ctx, 1, pads.ID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	item, err := svc.AddItem(ctx, 1, pads.ID, 1)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if item.Quantity != 3 {
		t.Errorf("expected quantity 3 after increment but got %d", item.Quantity)
	}

	items, err := svc.Items(ctx, 1)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected a single line but got %d", len(items))
	}
}

func TestAddItemValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	pads := &catalog.Product{Name: "Brake Pad Set", Slug: "brake-pad-set", SKU: "BP-100", PriceCents: 5499, StockQuantity: 2, IsActive: true}
	retired := &catalog.Product{Name: "Old Part", Slug: "old-part", SKU: "OP-900", PriceCents: 999, StockQuantity: 5, IsActive: false}
	seedProducts(t, svc, pads, retired)

	if _, err := svc.AddItem(ctx, 1, pads.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity but got %v", err)
	}
	if _, err := svc.AddItem(ctx, 1, 9999, 1); !store.NotFound(err) {
		t.Errorf("expected not found but got %v", err)
	}
	if _, err := svc.AddItem(ctx, 1, retired.ID, 1); !errors.Is(err, ErrProductUnavailable) {
		t.Errorf("expected ErrProductUnavailable but got %v", err)
	}
	if _, err := svc.AddItem(ctx, 1, pads.ID, 3); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock but got %v", err)
	}
	if _, err := svc.AddItem(ctx, 1, pads.ID, 2); err != nil {
		t.Fatalf("add at stock limit: %v", err)
	}
	if _, err := svc.AddItem(ctx, 1, pads.ID, 1); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected increment past stock rejected but got %v", err)
	}
}

func TestLineCapturesPriceAtAddTime(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	pads := &catalog.Product{Name: "Brake Pad Set", Slug: "brake-pad-set", SKU: "BP-100", PriceCents: 5000, StockQuantity: 10, IsActive: true}
	seedProducts(t, svc, pads)

	if _, err := svc.AddItem(ctx, 1, pads.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	pads.PriceCents = 9000
	if _, err := svc.db.NewUpdate().Model(pads).Column("price_cents").WherePK().Exec(ctx); err != nil {
		t.Fatalf("reprice: %v", err)
	}

	cart, err := svc.CartForUser(ctx, 1)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	subtotal, err := svc.SubtotalCents(ctx, cart.ID)
	if err != nil {
		t.Fatalf("subtotal: %v", err)
	}
	if subtotal != 5000 {
		t.Errorf("expected captured price 5000 but got %d", subtotal)
	}
}

func TestUpdateItemQuantityZeroRemovesLine(t *testing.T) {
	svc, fc, _ := newTestService(t)
	ctx := context.Background()
	pads := &catalog.Product{Name: "Brake Pad Set", Slug: "brake-pad-set", SKU: "BP-100", PriceCents: 5499, StockQuantity: 10, IsActive: true}
	seedProducts(t, svc, pads)

	if _, err := svc.AddItem(ctx, 1, pads.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err := svc.CartForUser(ctx, 1)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	if _, err := svc.Summary(ctx, cart.ID); err != nil {
		t.Fatalf("warm aggregates: %v", err)
	}

	if err := svc.UpdateItemQuantity(ctx, 1, pads.ID, 0); err != nil {
		t.Fatalf("update to zero: %v", err)
	}
	for _, key := range cartFanout(1, cart.ID) {
		if fc.Contains(key) {
			t.Errorf("expected %s invalidated after removal", key)
		}
	}
	ok, err := svc.Contains(ctx, 1, pads.ID)
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if ok {
		t.Error("expected line removed")
	}
}

func TestUpdateItemQuantity(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	pads := &catalog.Product{Name: "Brake Pad Set", Slug: "brake-pad-set", SKU: "BP-100", PriceCents: 5499, StockQuantity: 4, IsActive: true}
	seedProducts(t, svc, pads)

	if _, err := svc.AddItem(ctx, 1, pads.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.UpdateItemQuantity(ctx, 1, pads.ID, 5); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock but got %v", err)
	}
	if err := svc.UpdateItemQuantity(ctx, 1, pads.ID, 4); err != nil {
		t.Fatalf("update: %v", err)
	}
	cart, _ := svc.CartForUser(ctx, 1)
	qty, err := svc.TotalQuantity(ctx, cart.ID)
	if err != nil {
		t.Fatalf("quantity: %v", err)
	}
	if qty != 4 {
		t.Errorf("expected quantity 4 but got %d", qty)
	}

	if err := svc.UpdateItemQuantity(ctx, 1, 9999, 2); !store.NotFound(err) {
		t.Errorf("expected not found for absent line but got %v", err)
	}
}

func TestEmptyCartAggregatesAreCached(t *testing.T) {
	svc, _, qc := newTestService(t)
	ctx := context.Background()

	cart, err := svc.CartForUser(ctx, 3)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	sum, err := svc.Summary(ctx, cart.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.ItemsCount != 0 || sum.TotalQuantity != 0 || sum.SubtotalCents != 0 {
		t.Errorf("expected zero aggregates but got %+v", sum)
	}
	qc.Reset()
	if _, err := svc.Summary(ctx, cart.ID); err != nil {
		t.Fatalf("second summary: %v", err)
	}
	if got := qc.Selects(); got != 0 {
		t.Errorf("expected zero aggregates cached, got %d selects", got)
	}
}

func TestClear(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	pads := &catalog.Product{Name: "Brake Pad Set", Slug: "brake-pad-set", SKU: "BP-100", PriceCents: 5499, StockQuantity: 10, IsActive: true}
	discs := &catalog.Product{Name: "Brake Disc", Slug: "brake-disc", SKU: "BD-300", PriceCents: 2749, StockQuantity: 10, IsActive: true}
	seedProducts(t, svc, pads, discs)

	if _, err := svc.AddItem(ctx, 1, pads.ID, 1); err != nil {
		t.Fatalf("add pads: %v", err)
	}
	if _, err := svc.AddItem(ctx, 1, discs.ID, 1); err != nil {
		t.Fatalf("add discs: %v", err)
	}
	if err := svc.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}

	items, err := svc.Items(ctx, 1)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty cart but got %d lines", len(items))
	}
}

func TestRemoveProductsTxSkipsInvalidation(t *testing.T) {
	svc, fc, _ := newTestService(t)
	ctx := context.Background()
	pads := &catalog.Product{Name: "Brake Pad Set", Slug: "brake-pad-set", SKU: "BP-100", PriceCents: 5499, StockQuantity: 10, IsActive: true}
	seedProducts(t, svc, pads)

	if _, err := svc.AddItem(ctx, 1, pads.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, _ := svc.CartForUser(ctx, 1)
	if _, err := svc.ItemsCount(ctx, cart.ID); err != nil {
		t.Fatalf("warm count: %v", err)
	}

	if err := svc.RemoveProductsTx(ctx, svc.db, cart.ID, []int64{pads.ID}); err != nil {
		t.Fatalf("remove in tx: %v", err)
	}
	if !fc.Contains(itemsCountKey(cart.ID)) {
		t.Fatal("expected transactional removal to leave invalidation to the caller")
	}

	svc.InvalidateUser(ctx, 1, cart.ID)
	if fc.Contains(itemsCountKey(cart.ID)) {
		t.Error("expected InvalidateUser to drop the aggregate keys")
	}
	count, err := svc.ItemsCount(ctx, cart.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty cart but got %d lines", count)
	}
}
