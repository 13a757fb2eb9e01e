package product

import "time"

// Product is a sellable item. Prices are kept in cents.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	TenantID    int64     `json:"tenant_id" db:"tenant_id"`
	CategoryID  int64     `json:"category_id,omitempty" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	SKU         string    `json:"sku" db:"sku"`
	Description string    `json:"description,omitempty" db:"description"`
	PriceCents  int64     `json:"price_cents" db:"price_cents"`
	Stock       int64     `json:"stock" db:"stock"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
