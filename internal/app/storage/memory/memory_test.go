package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/R3E-Network/bizhub/internal/app/domain/address"
	"github.com/R3E-Network/bizhub/internal/app/domain/customer"
	"github.com/R3E-Network/bizhub/internal/app/domain/inventory"
	"github.com/R3E-Network/bizhub/internal/app/domain/product"
	"github.com/R3E-Network/bizhub/internal/app/storage"
)

func TestCustomersAreTenantScoped(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.CreateCustomer(ctx, customer.Customer{TenantID: 1, Name: "Ana Souza", Email: "ana@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreateCustomer(ctx, customer.Customer{TenantID: 2, Name: "Ana Lima"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, _ := store.SearchCustomers(ctx, 1, "ANA")
	if len(list) != 1 || list[0].Name != "Ana Souza" {
		t.Fatalf("unexpected search result %+v", list)
	}
	if _, err := store.GetCustomer(ctx, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPrimaryAddressIsUnique(t *testing.T) {
	store := New()
	ctx := context.Background()
	c, _ := store.CreateCustomer(ctx, customer.Customer{TenantID: 1, Name: "c"})

	first, _ := store.CreateAddress(ctx, address.Address{TenantID: 1, CustomerID: c.ID, Primary: true})
	second, _ := store.CreateAddress(ctx, address.Address{TenantID: 1, CustomerID: c.ID, Primary: true})

	got, _ := store.GetAddress(ctx, first.ID)
	if got.Primary {
		t.Fatalf("first address should have lost primary flag")
	}

	if err := store.DeleteAddress(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = store.GetAddress(ctx, first.ID)
	if !got.Primary {
		t.Fatalf("remaining address should be promoted to primary")
	}

	if err := store.SetPrimaryAddress(ctx, c.ID+100, first.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign customer, got %v", err)
	}
}

func TestAdjustStock(t *testing.T) {
	store := New()
	ctx := context.Background()
	p, _ := store.CreateProduct(ctx, product.Product{TenantID: 1, Name: "p", SKU: "P-1"})

	mv, err := store.AdjustStock(ctx, inventory.Movement{TenantID: 1, ProductID: p.ID, Delta: 4})
	if err != nil || mv.Balance != 4 {
		t.Fatalf("adjust: %+v %v", mv, err)
	}
	if _, err := store.AdjustStock(ctx, inventory.Movement{TenantID: 1, ProductID: p.ID, Delta: -5}); !errors.Is(err, storage.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	updated, _ := store.GetProduct(ctx, p.ID)
	if updated.Stock != 4 {
		t.Fatalf("stock = %d", updated.Stock)
	}
	moves, _ := store.ListMovements(ctx, p.ID)
	if len(moves) != 1 {
		t.Fatalf("movements = %d", len(moves))
	}

	updated.Stock = 1000
	updated, _ = store.UpdateProduct(ctx, updated)
	if updated.Stock != 4 {
		t.Fatalf("update must not change stock, got %d", updated.Stock)
	}

	if _, err := store.AdjustStock(ctx, inventory.Movement{TenantID: 1, ProductID: p.ID, Delta: storage.MaxStock}); !errors.Is(err, storage.ErrStockLimit) {
		t.Fatalf("expected stock limit, got %v", err)
	}
}
