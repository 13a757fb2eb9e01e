package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/R3E-Network/bizhub/internal/app/domain/address"
	"github.com/R3E-Network/bizhub/internal/app/domain/category"
	"github.com/R3E-Network/bizhub/internal/app/domain/customer"
	"github.com/R3E-Network/bizhub/internal/app/domain/inventory"
	"github.com/R3E-Network/bizhub/internal/app/domain/product"
	"github.com/R3E-Network/bizhub/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu         sync.RWMutex
	nextID     int64
	customers  map[int64]customer.Customer
	addresses  map[int64]address.Address
	categories map[int64]category.Category
	products   map[int64]product.Product
	movements  map[int64][]inventory.Movement
}

var _ storage.CustomerStore = (*Store)(nil)
var _ storage.AddressStore = (*Store)(nil)
var _ storage.CategoryStore = (*Store)(nil)
var _ storage.ProductStore = (*Store)(nil)
var _ storage.InventoryStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:     1,
		customers:  make(map[int64]customer.Customer),
		addresses:  make(map[int64]address.Address),
		categories: make(map[int64]category.Category),
		products:   make(map[int64]product.Product),
		movements:  make(map[int64][]inventory.Movement),
	}
}

func (s *Store) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, storage.ErrNotFound)
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

// CustomerStore implementation -------------------------------------------------

func (s *Store) CreateCustomer(_ context.Context, c customer.Customer) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextIDLocked()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.customers[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCustomer(_ context.Context, c customer.Customer) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.customers[c.ID]
	if !ok {
		return customer.Customer{}, notFound("customer", c.ID)
	}
	c.TenantID = original.TenantID
	c.CreatedAt = original.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	s.customers[c.ID] = c
	return c, nil
}

func (s *Store) GetCustomer(_ context.Context, id int64) (customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return customer.Customer{}, notFound("customer", id)
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context, tenantID int64) ([]customer.Customer, error) {
	return s.SearchCustomers(ctx, tenantID, "")
}

func (s *Store) SearchCustomers(_ context.Context, tenantID int64, query string) ([]customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	result := make([]customer.Customer, 0)
	for _, c := range s.customers {
		if c.TenantID != tenantID {
			continue
		}
		if query != "" && !contains(c.Name, query) && !contains(c.Email, query) && !contains(c.Document, query) {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return notFound("customer", id)
	}
	delete(s.customers, id)
	return nil
}

// AddressStore implementation -------------------------------------------------

func (s *Store) CreateAddress(_ context.Context, a address.Address) (address.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[a.CustomerID]; !ok {
		return address.Address{}, notFound("customer", a.CustomerID)
	}
	a.ID = s.nextIDLocked()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Primary {
		s.clearPrimaryLocked(a.CustomerID)
	}
	s.addresses[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAddress(_ context.Context, a address.Address) (address.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.addresses[a.ID]
	if !ok {
		return address.Address{}, notFound("address", a.ID)
	}
	a.TenantID = original.TenantID
	a.CustomerID = original.CustomerID
	a.Primary = original.Primary
	a.CreatedAt = original.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	s.addresses[a.ID] = a
	return a, nil
}

func (s *Store) GetAddress(_ context.Context, id int64) (address.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.addresses[id]
	if !ok {
		return address.Address{}, notFound("address", id)
	}
	return a, nil
}

func (s *Store) ListAddresses(_ context.Context, customerID int64) ([]address.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addressesLocked(customerID), nil
}

func (s *Store) addressesLocked(customerID int64) []address.Address {
	result := make([]address.Address, 0)
	for _, a := range s.addresses {
		if a.CustomerID == customerID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (s *Store) DeleteAddress(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.addresses[id]
	if !ok {
		return notFound("address", id)
	}
	delete(s.addresses, id)
	if a.Primary {
		if rest := s.addressesLocked(a.CustomerID); len(rest) > 0 {
			next := rest[0]
			next.Primary = true
			next.UpdatedAt = time.Now().UTC()
			s.addresses[next.ID] = next
		}
	}
	return nil
}

func (s *Store) SetPrimaryAddress(_ context.Context, customerID, addressID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.addresses[addressID]
	if !ok || a.CustomerID != customerID {
		return notFound("address", addressID)
	}
	s.clearPrimaryLocked(customerID)
	a.Primary = true
	a.UpdatedAt = time.Now().UTC()
	s.addresses[addressID] = a
	return nil
}

func (s *Store) clearPrimaryLocked(customerID int64) {
	for id, a := range s.addresses {
		if a.CustomerID == customerID && a.Primary {
			a.Primary = false
			s.addresses[id] = a
		}
	}
}

// CategoryStore implementation -------------------------------------------------

func (s *Store) CreateCategory(_ context.Context, c category.Category) (category.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextIDLocked()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c category.Category) (category.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.categories[c.ID]
	if !ok {
		return category.Category{}, notFound("category", c.ID)
	}
	c.TenantID = original.TenantID
	c.CreatedAt = original.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return category.Category{}, notFound("category", id)
	}
	return c, nil
}

func (s *Store) GetCategoryBySlug(_ context.Context, tenantID int64, slug string) (category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.TenantID == tenantID && c.Slug == slug {
			return c, nil
		}
	}
	return category.Category{}, fmt.Errorf("category %q: %w", slug, storage.ErrNotFound)
}

func (s *Store) ListCategories(_ context.Context, tenantID int64) ([]category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]category.Category, 0)
	for _, c := range s.categories {
		if c.TenantID == tenantID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return notFound("category", id)
	}
	delete(s.categories, id)
	return nil
}

// ProductStore implementation -------------------------------------------------

func (s *Store) CreateProduct(_ context.Context, p product.Product) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextIDLocked()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, p product.Product) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.products[p.ID]
	if !ok {
		return product.Product{}, notFound("product", p.ID)
	}
	p.TenantID = original.TenantID
	p.Stock = original.Stock
	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return product.Product{}, notFound("product", id)
	}
	return p, nil
}

func (s *Store) GetProductBySKU(_ context.Context, tenantID int64, sku string) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.TenantID == tenantID && strings.EqualFold(p.SKU, sku) {
			return p, nil
		}
	}
	return product.Product{}, fmt.Errorf("product %q: %w", sku, storage.ErrNotFound)
}

func (s *Store) ListProducts(ctx context.Context, tenantID int64) ([]product.Product, error) {
	return s.SearchProducts(ctx, tenantID, "")
}

func (s *Store) SearchProducts(_ context.Context, tenantID int64, query string) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	result := make([]product.Product, 0)
	for _, p := range s.products {
		if p.TenantID != tenantID {
			continue
		}
		if query != "" && !contains(p.Name, query) && !contains(p.SKU, query) {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) CountProductsByCategory(_ context.Context, categoryID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.products {
		if p.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return notFound("product", id)
	}
	delete(s.products, id)
	delete(s.movements, id)
	return nil
}

// InventoryStore implementation -----------------------------------------------

func (s *Store) AdjustStock(_ context.Context, mv inventory.Movement) (inventory.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[mv.ProductID]
	if !ok {
		return inventory.Movement{}, notFound("product", mv.ProductID)
	}
	balance := p.Stock + mv.Delta
	if balance < 0 {
		return inventory.Movement{}, storage.ErrInsufficientStock
	}
	if balance > storage.MaxStock {
		return inventory.Movement{}, storage.ErrStockLimit
	}

	now := time.Now().UTC()
	p.Stock = balance
	p.UpdatedAt = now
	s.products[p.ID] = p

	mv.ID = s.nextIDLocked()
	mv.Balance = balance
	mv.CreatedAt = now
	s.movements[p.ID] = append(s.movements[p.ID], mv)
	return mv, nil
}

func (s *Store) ListMovements(_ context.Context, productID int64) ([]inventory.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.movements[productID]
	result := make([]inventory.Movement, len(src))
	copy(result, src)
	return result, nil
}
