package dto

import "github.com/shopspring/decimal"

type SaleLine struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

type CreateSaleInput struct {
	UserID         string
	IdempotencyKey string
	Lines          []SaleLine
	// TotalAmount is the caller's running total. It is re-derived and
	// compared, never trusted.
	TotalAmount decimal.Decimal
}
