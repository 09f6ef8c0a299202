package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Weight units accepted for net_weight.
const (
	WeightUnitMl = "ml"
	WeightUnitMg = "mg"
	WeightUnitL  = "l"
	WeightUnitKg = "kg"
)

func ValidWeightUnit(u string) bool {
	switch u {
	case WeightUnitMl, WeightUnitMg, WeightUnitL, WeightUnitKg:
		return true
	}
	return false
}

type Product struct {
	BaseModel
	UserID        string           `db:"user_id" json:"user_id"`
	Name          string           `db:"name" json:"name"`
	Stock         int              `db:"stock" json:"stock"`
	PurchasePrice decimal.Decimal  `db:"purchase_price" json:"purchase_price"`
	SalePrice     decimal.Decimal  `db:"sale_price" json:"sale_price"`
	NetWeight     *decimal.Decimal `db:"net_weight" json:"net_weight"` // Nullable, paired with WeightUnit
	WeightUnit    *string          `db:"weight_unit" json:"weight_unit"`
	PurchaseDate  *time.Time       `db:"purchase_date" json:"purchase_date"`
	Branch        *string          `db:"branch" json:"branch"`
}
