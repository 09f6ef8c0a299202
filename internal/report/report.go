package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hgonzalo/tienda-service/internal/model"
)

// Stats is the dashboard rollup. Change values are percentages vs. the
// prior equivalent period; averages are per-sale within the period.
type Stats struct {
	WeeklyRevenue  decimal.Decimal `json:"weekly_revenue"`
	WeeklyChange   float64         `json:"weekly_change"`
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
	MonthlyChange  float64         `json:"monthly_change"`
	WeeklyAverage  decimal.Decimal `json:"weekly_average"`
	MonthlyAverage decimal.Decimal `json:"monthly_average"`
}

// BestSeller is the product with the highest total quantity across all of
// the owner's sales; ties break toward the most recently sold.
type BestSeller struct {
	model.Product
	TotalSold  int       `db:"total_sold" json:"total_sold"`
	LastSoldAt time.Time `db:"last_sold_at" json:"last_sold_at"`
}

type Repository interface {
	// RevenueBetween sums sale totals in the half-open interval [from, to)
	// and reports the number of sales counted.
	RevenueBetween(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, int, error)

	// BestSeller returns nil when the owner has no sales.
	BestSeller(ctx context.Context, userID string) (*BestSeller, error)

	LowStock(ctx context.Context, userID string, limit int) ([]model.Product, error)
}

type UseCase interface {
	Stats(ctx context.Context, userID string) (*Stats, error)
	BestSellingProduct(ctx context.Context, userID string) (*BestSeller, error)
	LowStockProducts(ctx context.Context, userID string) ([]model.Product, error)
}
