package products

import (
	"context"
	"testing"

	"github.com/R3E-Network/bizhub/internal/app/domain/category"
	"github.com/R3E-Network/bizhub/internal/app/domain/product"
	"github.com/R3E-Network/bizhub/internal/app/result"
	"github.com/R3E-Network/bizhub/internal/app/storage/memory"
	"github.com/R3E-Network/bizhub/internal/app/tenant"
)

var (
	tenantA = tenant.Context{TenantID: 1, UserID: 10}
	tenantB = tenant.Context{TenantID: 2, UserID: 20}
)

func TestService(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()
	cat, _ := store.CreateCategory(ctx, category.Category{TenantID: 1, Name: "Cadeiras", Slug: "cadeiras"})

	res := svc.Create(ctx, tenantA, Input{CategoryID: cat.ID, Name: "Cadeira Gamer", SKU: " cg-01 ", PriceCents: 129900})
	if !res.IsSuccess() {
		t.Fatalf("create: %s %v", res.Message(), res.Errors())
	}
	p := res.Data().(product.Product)
	if p.SKU != "CG-01" || !p.Active || p.Stock != 0 {
		t.Fatalf("unexpected product %+v", p)
	}
	if res.RedirectTarget() != "products.show" || res.RedirectParameters()["product"] == "" {
		t.Fatalf("unexpected redirect %q", res.RedirectTarget())
	}

	inactive := false
	res = svc.Update(ctx, tenantA, p.ID, Input{CategoryID: cat.ID, Name: "Cadeira Gamer X", SKU: "CG-01", PriceCents: 119900, Active: &inactive})
	if !res.IsSuccess() {
		t.Fatalf("update: %s %v", res.Message(), res.Errors())
	}
	if updated := res.Data().(product.Product); updated.Active || updated.PriceCents != 119900 {
		t.Fatalf("unexpected update %+v", updated)
	}

	if got := svc.Search(ctx, tenantA, "gamer x").Data().([]product.Product); len(got) != 1 {
		t.Fatalf("search = %d", len(got))
	}
	if got := svc.List(ctx, tenantB).Data().([]product.Product); len(got) != 0 {
		t.Fatalf("tenant B sees %d products", len(got))
	}
}

func TestDuplicateSKU(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()
	svc.Create(ctx, tenantA, Input{Name: "a", SKU: "SKU-1"})

	res := svc.Create(ctx, tenantA, Input{Name: "b", SKU: "sku-1"})
	if res.IsSuccess() || res.Errors()["sku"] != MsgSKUTaken {
		t.Fatalf("expected duplicate sku failure, got %+v", res)
	}
	if res := svc.Create(ctx, tenantB, Input{Name: "b", SKU: "SKU-1"}); !res.IsSuccess() {
		t.Fatalf("sku must be unique per tenant only: %s", res.Message())
	}
}

func TestForeignCategoryRejected(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()
	foreign, _ := store.CreateCategory(ctx, category.Category{TenantID: 2, Name: "x", Slug: "x"})

	for _, id := range []int64{foreign.ID, 999} {
		res := svc.Create(ctx, tenantA, Input{CategoryID: id, Name: "p", SKU: "P"})
		if res.Kind() != result.KindValidation || res.Errors()["category_id"] == "" {
			t.Fatalf("category %d: expected validation failure, got %+v", id, res)
		}
	}
}

func TestOwnershipAndDelete(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()
	p := svc.Create(ctx, tenantA, Input{Name: "p", SKU: "P"}).Data().(product.Product)

	if res := svc.Find(ctx, tenantB, p.ID); res.Kind() != result.KindForbidden {
		t.Fatalf("expected forbidden, got %s", res.Kind())
	}
	if res := svc.Delete(ctx, tenantA, p.ID); !res.IsSuccess() || res.RedirectTarget() != "products.index" {
		t.Fatalf("delete: %+v", res)
	}
	if res := svc.Find(ctx, tenantA, p.ID); res.Kind() != result.KindNotFound {
		t.Fatalf("expected not found, got %s", res.Kind())
	}
}
