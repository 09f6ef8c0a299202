package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/report"
	"github.com/hgonzalo/tienda-service/pkg/logger"
)

type reportRepo struct {
	db  *sqlx.DB
	log logger.ZapLogger
}

func NewReportRepository(db *sqlx.DB, log logger.ZapLogger) report.Repository {
	return &reportRepo{db: db, log: log}
}

func (r *reportRepo) RevenueBetween(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, int, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS sale_count
		FROM sales
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3`

	var row struct {
		Revenue   decimal.Decimal `db:"revenue"`
		SaleCount int             `db:"sale_count"`
	}
	if err := r.db.GetContext(ctx, &row, query, userID, from, to); err != nil {
		return decimal.Zero, 0, err
	}
	return row.Revenue, row.SaleCount, nil
}

func (r *reportRepo) BestSeller(ctx context.Context, userID string) (*report.BestSeller, error) {
	query := `
		SELECT p.*, SUM(si.quantity) AS total_sold, MAX(s.created_at) AS last_sold_at
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE s.user_id = $1
		GROUP BY p.id
		ORDER BY total_sold DESC, last_sold_at DESC
		LIMIT 1`

	best := &report.BestSeller{}
	if err := r.db.GetContext(ctx, best, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return best, nil
}

// LowStock returns the owner's `limit` lowest-stock products; limit caps
// the row count, it is not a stock threshold.
func (r *reportRepo) LowStock(ctx context.Context, userID string, limit int) ([]model.Product, error) {
	query := `
		SELECT * FROM products
		WHERE user_id = $1
		ORDER BY stock ASC, name ASC
		LIMIT $2`

	products := []model.Product{}
	if err := r.db.SelectContext(ctx, &products, query, userID, limit); err != nil {
		return nil, err
	}
	return products, nil
}
