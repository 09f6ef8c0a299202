package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgonzalo/tienda-service/pkg/logger"
)

func newMockRepo(t *testing.T) (*reportRepo, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "pgx")
	log := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment: true,
		Encoding:      "console",
		Level:         "error",
	})
	return NewReportRepository(db, log).(*reportRepo), mock
}

var productColumns = []string{
	"id", "user_id", "name", "stock",
	"purchase_price", "sale_price", "created_at", "updated_at",
}

func TestLowStockCapsRowCount(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	// The limit must bound how many rows come back, never act as a stock
	// threshold: products above the old "stock <= limit" cutoff still
	// belong on the dashboard when they are the lowest in the catalog.
	mock.ExpectQuery(`(?s)SELECT \* FROM products\s+WHERE user_id = \$1\s+ORDER BY stock ASC, name ASC\s+LIMIT \$2`).
		WithArgs("owner-1", 3).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("p1", "owner-1", "Flour", 8, "10.00", "15.00", now, now).
			AddRow("p2", "owner-1", "Sugar", 10, "10.00", "15.00", now, now).
			AddRow("p3", "owner-1", "Salt", 12, "10.00", "15.00", now, now))

	products, err := repo.LowStock(context.Background(), "owner-1", 3)

	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Flour", products[0].Name)
	assert.Equal(t, 8, products[0].Stock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLowStockEmptyCatalog(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`(?s)SELECT \* FROM products`).
		WithArgs("owner-1", 3).
		WillReturnRows(sqlmock.NewRows(productColumns))

	products, err := repo.LowStock(context.Background(), "owner-1", 3)

	require.NoError(t, err)
	assert.Empty(t, products)
	require.NoError(t, mock.ExpectationsWereMet())
}
