package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/R3E-Network/bizhub/internal/app/domain/address"
	"github.com/R3E-Network/bizhub/internal/app/domain/category"
	"github.com/R3E-Network/bizhub/internal/app/domain/customer"
	"github.com/R3E-Network/bizhub/internal/app/domain/inventory"
	"github.com/R3E-Network/bizhub/internal/app/domain/product"
	"github.com/R3E-Network/bizhub/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.CustomerStore = (*Store)(nil)
var _ storage.AddressStore = (*Store)(nil)
var _ storage.CategoryStore = (*Store)(nil)
var _ storage.ProductStore = (*Store)(nil)
var _ storage.InventoryStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func mapErr(kind string, id any, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", kind, id, storage.ErrNotFound)
	}
	return err
}

func expectRow(res sql.Result, kind string, id int64) error {
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}

func likePattern(query string) string {
	query = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(query))
	return "%" + query + "%"
}

// --- CustomerStore ----------------------------------------------------------

const customerColumns = `id, tenant_id, name, email, phone, document, notes, created_at, updated_at`

func (s *Store) CreateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO customers (tenant_id, name, email, phone, document, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, c.TenantID, c.Name, c.Email, c.Phone, c.Document, c.Notes, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return customer.Customer{}, err
	}
	return c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	var out customer.Customer
	err := s.db.QueryRowxContext(ctx, `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, document = $5, notes = $6, updated_at = $7
		WHERE id = $1
		RETURNING `+customerColumns,
		c.ID, c.Name, c.Email, c.Phone, c.Document, c.Notes, time.Now().UTC()).StructScan(&out)
	if err != nil {
		return customer.Customer{}, mapErr("customer", c.ID, err)
	}
	return out, nil
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (customer.Customer, error) {
	var c customer.Customer
	if err := s.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id); err != nil {
		return customer.Customer{}, mapErr("customer", id, err)
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context, tenantID int64) ([]customer.Customer, error) {
	result := []customer.Customer{}
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE tenant_id = $1
		ORDER BY id
	`, tenantID)
	return result, err
}

func (s *Store) SearchCustomers(ctx context.Context, tenantID int64, query string) ([]customer.Customer, error) {
	if strings.TrimSpace(query) == "" {
		return s.ListCustomers(ctx, tenantID)
	}
	result := []customer.Customer{}
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE tenant_id = $1 AND (name ILIKE $2 OR email ILIKE $2 OR document ILIKE $2)
		ORDER BY id
	`, tenantID, likePattern(query))
	return result, err
}

func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, "customer", id)
}

// --- AddressStore -----------------------------------------------------------

const addressColumns = `id, tenant_id, customer_id, label, street, number, complement, district, city, state, postal_code, is_primary, created_at, updated_at`

func (s *Store) CreateAddress(ctx context.Context, a address.Address) (address.Address, error) {
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return address.Address{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if a.Primary {
		if _, err := tx.ExecContext(ctx, `UPDATE addresses SET is_primary = FALSE WHERE customer_id = $1`, a.CustomerID); err != nil {
			return address.Address{}, err
		}
	}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO addresses (tenant_id, customer_id, label, street, number, complement, district, city, state, postal_code, is_primary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, a.TenantID, a.CustomerID, a.Label, a.Street, a.Number, a.Complement, a.District, a.City, a.State, a.PostalCode, a.Primary, a.CreatedAt, a.UpdatedAt).Scan(&a.ID)
	if err != nil {
		return address.Address{}, err
	}
	if err := tx.Commit(); err != nil {
		return address.Address{}, err
	}
	return a, nil
}

func (s *Store) UpdateAddress(ctx context.Context, a address.Address) (address.Address, error) {
	var out address.Address
	err := s.db.QueryRowxContext(ctx, `
		UPDATE addresses
		SET label = $2, street = $3, number = $4, complement = $5, district = $6, city = $7, state = $8, postal_code = $9, updated_at = $10
		WHERE id = $1
		RETURNING `+addressColumns,
		a.ID, a.Label, a.Street, a.Number, a.Complement, a.District, a.City, a.State, a.PostalCode, time.Now().UTC()).StructScan(&out)
	if err != nil {
		return address.Address{}, mapErr("address", a.ID, err)
	}
	return out, nil
}

func (s *Store) GetAddress(ctx context.Context, id int64) (address.Address, error) {
	var a address.Address
	if err := s.db.GetContext(ctx, &a, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id); err != nil {
		return address.Address{}, mapErr("address", id, err)
	}
	return a, nil
}

func (s *Store) ListAddresses(ctx context.Context, customerID int64) ([]address.Address, error) {
	result := []address.Address{}
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+addressColumns+`
		FROM addresses
		WHERE customer_id = $1
		ORDER BY id
	`, customerID)
	return result, err
}

func (s *Store) DeleteAddress(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var deleted struct {
		CustomerID int64 `db:"customer_id"`
		Primary    bool  `db:"is_primary"`
	}
	err = tx.QueryRowxContext(ctx, `DELETE FROM addresses WHERE id = $1 RETURNING customer_id, is_primary`, id).StructScan(&deleted)
	if err != nil {
		return mapErr("address", id, err)
	}
	if deleted.Primary {
		if _, err := tx.ExecContext(ctx, `
			UPDATE addresses SET is_primary = TRUE, updated_at = $2
			WHERE id = (SELECT id FROM addresses WHERE customer_id = $1 ORDER BY id LIMIT 1)
		`, deleted.CustomerID, time.Now().UTC()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) SetPrimaryAddress(ctx context.Context, customerID, addressID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE addresses SET is_primary = FALSE WHERE customer_id = $1 AND id <> $2`, customerID, addressID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE addresses SET is_primary = TRUE, updated_at = $3
		WHERE id = $1 AND customer_id = $2
	`, addressID, customerID, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := expectRow(res, "address", addressID); err != nil {
		return err
	}
	return tx.Commit()
}

// --- CategoryStore ----------------------------------------------------------

const categoryColumns = `id, tenant_id, name, slug, description, created_at, updated_at`

func (s *Store) CreateCategory(ctx context.Context, c category.Category) (category.Category, error) {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO categories (tenant_id, name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, c.TenantID, c.Name, c.Slug, c.Description, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return category.Category{}, err
	}
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c category.Category) (category.Category, error) {
	var out category.Category
	err := s.db.QueryRowxContext(ctx, `
		UPDATE categories
		SET name = $2, slug = $3, description = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+categoryColumns,
		c.ID, c.Name, c.Slug, c.Description, time.Now().UTC()).StructScan(&out)
	if err != nil {
		return category.Category{}, mapErr("category", c.ID, err)
	}
	return out, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (category.Category, error) {
	var c category.Category
	if err := s.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id); err != nil {
		return category.Category{}, mapErr("category", id, err)
	}
	return c, nil
}

func (s *Store) GetCategoryBySlug(ctx context.Context, tenantID int64, slug string) (category.Category, error) {
	var c category.Category
	err := s.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categories WHERE tenant_id = $1 AND slug = $2`, tenantID, slug)
	if err != nil {
		return category.Category{}, mapErr("category", slug, err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, tenantID int64) ([]category.Category, error) {
	result := []category.Category{}
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE tenant_id = $1
		ORDER BY name
	`, tenantID)
	return result, err
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, "category", id)
}

// --- ProductStore -----------------------------------------------------------

const productColumns = `id, tenant_id, COALESCE(category_id, 0) AS category_id, name, sku, description, price_cents, stock, active, created_at, updated_at`

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func (s *Store) CreateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO products (tenant_id, category_id, name, sku, description, price_cents, stock, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, p.TenantID, nullableID(p.CategoryID), p.Name, p.SKU, p.Description, p.PriceCents, p.Stock, p.Active, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	var out product.Product
	err := s.db.QueryRowxContext(ctx, `
		UPDATE products
		SET category_id = $2, name = $3, sku = $4, description = $5, price_cents = $6, active = $7, updated_at = $8
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, nullableID(p.CategoryID), p.Name, p.SKU, p.Description, p.PriceCents, p.Active, time.Now().UTC()).StructScan(&out)
	if err != nil {
		return product.Product{}, mapErr("product", p.ID, err)
	}
	return out, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (product.Product, error) {
	var p product.Product
	if err := s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id); err != nil {
		return product.Product{}, mapErr("product", id, err)
	}
	return p, nil
}

func (s *Store) GetProductBySKU(ctx context.Context, tenantID int64, sku string) (product.Product, error) {
	var p product.Product
	err := s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND lower(sku) = lower($2)`, tenantID, sku)
	if err != nil {
		return product.Product{}, mapErr("product", sku, err)
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, tenantID int64) ([]product.Product, error) {
	result := []product.Product{}
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+productColumns+`
		FROM products
		WHERE tenant_id = $1
		ORDER BY id
	`, tenantID)
	return result, err
}

func (s *Store) SearchProducts(ctx context.Context, tenantID int64, query string) ([]product.Product, error) {
	if strings.TrimSpace(query) == "" {
		return s.ListProducts(ctx, tenantID)
	}
	result := []product.Product{}
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+productColumns+`
		FROM products
		WHERE tenant_id = $1 AND (name ILIKE $2 OR sku ILIKE $2)
		ORDER BY id
	`, tenantID, likePattern(query))
	return result, err
}

func (s *Store) CountProductsByCategory(ctx context.Context, categoryID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID)
	return count, err
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, "product", id)
}

// --- InventoryStore ---------------------------------------------------------

func (s *Store) AdjustStock(ctx context.Context, mv inventory.Movement) (inventory.Movement, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return inventory.Movement{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	var stock int64
	err = tx.QueryRowxContext(ctx, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, mv.ProductID).Scan(&stock)
	if err != nil {
		return inventory.Movement{}, mapErr("product", mv.ProductID, err)
	}
	mv.Balance = stock + mv.Delta
	if mv.Balance < 0 {
		return inventory.Movement{}, storage.ErrInsufficientStock
	}
	if mv.Balance > storage.MaxStock {
		return inventory.Movement{}, storage.ErrStockLimit
	}
	if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = $2, updated_at = $3 WHERE id = $1`, mv.ProductID, mv.Balance, now); err != nil {
		return inventory.Movement{}, err
	}

	mv.CreatedAt = now
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO stock_movements (tenant_id, product_id, user_id, delta, balance, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, mv.TenantID, mv.ProductID, mv.UserID, mv.Delta, mv.Balance, mv.Reason, mv.CreatedAt).Scan(&mv.ID)
	if err != nil {
		return inventory.Movement{}, err
	}
	if err := tx.Commit(); err != nil {
		return inventory.Movement{}, err
	}
	return mv, nil
}

func (s *Store) ListMovements(ctx context.Context, productID int64) ([]inventory.Movement, error) {
	result := []inventory.Movement{}
	err := s.db.SelectContext(ctx, &result, `
		SELECT id, tenant_id, product_id, user_id, delta, balance, reason, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY id
	`, productID)
	return result, err
}
