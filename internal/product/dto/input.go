package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateProductInput struct {
	UserID        string
	Name          string
	Stock         int
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	NetWeight     *decimal.Decimal
	WeightUnit    *string
	PurchaseDate  *time.Time
	Branch        *string
}

type UpdateProductInput struct {
	ID            string
	UserID        string
	Name          string
	Stock         int
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	NetWeight     *decimal.Decimal
	WeightUnit    *string
	PurchaseDate  *time.Time
	Branch        *string
}

type RestockInput struct {
	UserID    string
	ProductID string
	Amount    int
}
