package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is the immutable transaction header. One sale owns many SaleItems.
type Sale struct {
	ID             string          `db:"id" json:"id"`
	UserID         string          `db:"user_id" json:"user_id"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	IdempotencyKey string          `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	Items          []SaleItem      `db:"-" json:"items,omitempty"`
}

// SaleItem carries a frozen unit_price snapshot taken at sale time; later
// edits to the product must not change it.
type SaleItem struct {
	ID          string          `db:"id" json:"id"`
	SaleID      string          `db:"sale_id" json:"sale_id"`
	ProductID   string          `db:"product_id" json:"product_id"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice  decimal.Decimal `db:"total_price" json:"total_price"`
	ProductName *string         `db:"product_name" json:"product_name,omitempty"` // Joined data
}
