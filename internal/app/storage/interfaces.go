package storage

import (
	"context"
	"errors"

	"github.com/R3E-Network/bizhub/internal/app/domain/address"
	"github.com/R3E-Network/bizhub/internal/app/domain/category"
	"github.com/R3E-Network/bizhub/internal/app/domain/customer"
	"github.com/R3E-Network/bizhub/internal/app/domain/inventory"
	"github.com/R3E-Network/bizhub/internal/app/domain/product"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("storage: record not found")
	// ErrInsufficientStock is returned when an adjustment would drive stock
	// below zero.
	ErrInsufficientStock = errors.New("storage: insufficient stock")
	// ErrStockLimit is returned when an adjustment would push stock past
	// MaxStock.
	ErrStockLimit = errors.New("storage: stock limit exceeded")
)

// MaxStock caps a product's stock balance. With adjustments bounded by the
// inventory service the sum never leaves int64.
const MaxStock int64 = 1_000_000_000_000

// CustomerStore persists customer records.
type CustomerStore interface {
	CreateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error)
	UpdateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error)
	GetCustomer(ctx context.Context, id int64) (customer.Customer, error)
	ListCustomers(ctx context.Context, tenantID int64) ([]customer.Customer, error)
	SearchCustomers(ctx context.Context, tenantID int64, query string) ([]customer.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
}

// AddressStore persists customer addresses.
type AddressStore interface {
	CreateAddress(ctx context.Context, a address.Address) (address.Address, error)
	UpdateAddress(ctx context.Context, a address.Address) (address.Address, error)
	GetAddress(ctx context.Context, id int64) (address.Address, error)
	ListAddresses(ctx context.Context, customerID int64) ([]address.Address, error)
	DeleteAddress(ctx context.Context, id int64) error
	// SetPrimaryAddress marks addressID primary and clears the flag on every
	// other address of the customer.
	SetPrimaryAddress(ctx context.Context, customerID, addressID int64) error
}

// CategoryStore persists product categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c category.Category) (category.Category, error)
	UpdateCategory(ctx context.Context, c category.Category) (category.Category, error)
	GetCategory(ctx context.Context, id int64) (category.Category, error)
	GetCategoryBySlug(ctx context.Context, tenantID int64, slug string) (category.Category, error)
	ListCategories(ctx context.Context, tenantID int64) ([]category.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// ProductStore persists products.
type ProductStore interface {
	CreateProduct(ctx context.Context, p product.Product) (product.Product, error)
	UpdateProduct(ctx context.Context, p product.Product) (product.Product, error)
	GetProduct(ctx context.Context, id int64) (product.Product, error)
	GetProductBySKU(ctx context.Context, tenantID int64, sku string) (product.Product, error)
	ListProducts(ctx context.Context, tenantID int64) ([]product.Product, error)
	SearchProducts(ctx context.Context, tenantID int64, query string) ([]product.Product, error)
	CountProductsByCategory(ctx context.Context, categoryID int64) (int, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// InventoryStore records stock movements.
type InventoryStore interface {
	// AdjustStock applies mv.Delta to the product stock and records the
	// movement atomically. It returns ErrInsufficientStock when the
	// resulting stock would be negative.
	AdjustStock(ctx context.Context, mv inventory.Movement) (inventory.Movement, error)
	ListMovements(ctx context.Context, productID int64) ([]inventory.Movement, error)
}
