package inventory

import (
	"context"
	"math"
	"testing"

	"github.com/R3E-Network/bizhub/internal/app/domain/inventory"
	"github.com/R3E-Network/bizhub/internal/app/domain/product"
	"github.com/R3E-Network/bizhub/internal/app/result"
	"github.com/R3E-Network/bizhub/internal/app/storage/memory"
	"github.com/R3E-Network/bizhub/internal/app/tenant"
)

var (
	tenantA = tenant.Context{TenantID: 1, UserID: 10}
	tenantB = tenant.Context{TenantID: 2, UserID: 20}
)

func TestAdjust(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()
	p, _ := store.CreateProduct(ctx, product.Product{TenantID: 1, Name: "p", SKU: "P"})

	res := svc.Adjust(ctx, tenantA, p.ID, Input{Delta: 5, Reason: "compra"})
	if !res.IsSuccess() {
		t.Fatalf("adjust: %s", res.Message())
	}
	mv := res.Data().(inventory.Movement)
	if mv.Balance != 5 || mv.UserID != tenantA.UserID {
		t.Fatalf("unexpected movement %+v", mv)
	}
	if res.Action() != "adjust_stock" || res.EntityID() != p.ID {
		t.Fatalf("unexpected tags %s/%d", res.Action(), res.EntityID())
	}

	res = svc.Adjust(ctx, tenantA, p.ID, Input{Delta: -6})
	if res.IsSuccess() || res.Message() != MsgInsufficientStock || res.Kind() != result.KindOperation {
		t.Fatalf("expected insufficient stock, got %+v", res)
	}

	res = svc.Adjust(ctx, tenantA, p.ID, Input{Delta: -5})
	if !res.IsSuccess() || res.Data().(inventory.Movement).Reason != defaultReason {
		t.Fatalf("adjust to zero: %+v", res)
	}

	moves := svc.Movements(ctx, tenantA, p.ID).Data().([]inventory.Movement)
	if len(moves) != 2 || moves[1].Balance != 0 {
		t.Fatalf("unexpected movements %+v", moves)
	}
}

func TestAdjustRejectsZeroAndForeign(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()
	p, _ := store.CreateProduct(ctx, product.Product{TenantID: 1, Name: "p", SKU: "P"})

	if res := svc.Adjust(ctx, tenantA, p.ID, Input{}); res.Kind() != result.KindValidation {
		t.Fatalf("expected validation failure, got %s", res.Kind())
	}
	if res := svc.Adjust(ctx, tenantB, p.ID, Input{Delta: 1}); res.Kind() != result.KindForbidden {
		t.Fatalf("expected forbidden, got %s", res.Kind())
	}
	if res := svc.Movements(ctx, tenantA, p.ID+99); res.Kind() != result.KindNotFound {
		t.Fatalf("expected not found, got %s", res.Kind())
	}
}

func TestAdjustBoundsDelta(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil)
	ctx := context.Background()
	p, _ := store.CreateProduct(ctx, product.Product{TenantID: 1, Name: "p", SKU: "P"})

	for _, delta := range []int64{math.MaxInt64, math.MinInt64, 1_000_000_001} {
		res := svc.Adjust(ctx, tenantA, p.ID, Input{Delta: delta})
		if res.Kind() != result.KindValidation || res.Errors()["delta"] == "" {
			t.Fatalf("delta %d: expected validation failure, got %s %v", delta, res.Kind(), res.Errors())
		}
	}

	if res := svc.Adjust(ctx, tenantA, p.ID, Input{Delta: 1_000_000_000}); !res.IsSuccess() {
		t.Fatalf("max delta: %s", res.Message())
	}
	moves := svc.Movements(ctx, tenantA, p.ID).Data().([]inventory.Movement)
	if len(moves) != 1 {
		t.Fatalf("movements = %d, want 1", len(moves))
	}
}
