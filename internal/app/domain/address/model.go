package address

import "time"

// Address is a postal address of a customer. Each customer has at most one
// primary address.
type Address struct {
	ID         int64     `json:"id" db:"id"`
	TenantID   int64     `json:"tenant_id" db:"tenant_id"`
	CustomerID int64     `json:"customer_id" db:"customer_id"`
	Label      string    `json:"label,omitempty" db:"label"`
	Street     string    `json:"street" db:"street"`
	Number     string    `json:"number,omitempty" db:"number"`
	Complement string    `json:"complement,omitempty" db:"complement"`
	District   string    `json:"district,omitempty" db:"district"`
	City       string    `json:"city" db:"city"`
	State      string    `json:"state" db:"state"`
	PostalCode string    `json:"postal_code" db:"postal_code"`
	Primary    bool      `json:"is_primary" db:"is_primary"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
