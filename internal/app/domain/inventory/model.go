package inventory

import "time"

// Movement is one stock adjustment of a product.
type Movement struct {
	ID        int64     `json:"id" db:"id"`
	TenantID  int64     `json:"tenant_id" db:"tenant_id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Delta     int64     `json:"delta" db:"delta"`
	Balance   int64     `json:"balance" db:"balance"`
	Reason    string    `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
