package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/sale"
)

const pgUniqueViolation = "23505"

var tracer = otel.Tracer("sale/repository")

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// CreateSale runs the whole unit of work in one transaction: conditional
// stock decrements, the sale header, then the items. Decrements go first so
// a conflict aborts before any insert, and products are touched in sorted id
// order so two concurrent sales cannot deadlock on row locks.
func (r *PGRepository) CreateSale(ctx context.Context, s *model.Sale, decrements map[string]int) error {
	ctx, span := tracer.Start(ctx, "CreateSale")
	defer span.End()
	span.SetAttributes(
		attribute.String("sale.id", s.ID),
		attribute.Int("sale.products", len(decrements)),
	)

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return &sale.PersistenceError{Err: err}
	}
	defer tx.Rollback()

	productIDs := make([]string, 0, len(decrements))
	for id := range decrements {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	decrementQuery := `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND stock >= $1
	`

	var conflicts []string
	for _, productID := range productIDs {
		res, err := tx.ExecContext(ctx, decrementQuery, decrements[productID], productID, s.UserID)
		if err != nil {
			return &sale.PersistenceError{Err: err}
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return &sale.PersistenceError{Err: err}
		}
		if rows == 0 {
			// Keep probing so the caller learns about every conflicting
			// product, not just the first.
			conflicts = append(conflicts, productID)
		}
	}
	if len(conflicts) > 0 {
		return &sale.StockConflictError{ProductIDs: conflicts}
	}

	headerQuery := `
		INSERT INTO sales (id, user_id, total_amount, idempotency_key, created_at)
		VALUES (:id, :user_id, :total_amount, :idempotency_key, :created_at)
	`
	if _, err := tx.NamedExecContext(ctx, headerQuery, s); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return r.duplicateError(ctx, s)
		}
		return &sale.PersistenceError{Err: err}
	}

	itemsQuery := `
		INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price, total_price)
		VALUES (:id, :sale_id, :product_id, :quantity, :unit_price, :total_price)
	`
	if _, err := tx.NamedExecContext(ctx, itemsQuery, s.Items); err != nil {
		return &sale.PersistenceError{Err: err}
	}

	if err := tx.Commit(); err != nil {
		// The statements all succeeded but the commit confirmation was
		// lost; the sale may or may not be durable.
		return &sale.PartialCommitError{SaleID: s.ID, Err: err}
	}
	return nil
}

func (r *PGRepository) duplicateError(ctx context.Context, s *model.Sale) error {
	existing, err := r.FindByIdempotencyKey(ctx, s.UserID, s.IdempotencyKey)
	if err != nil || existing == nil {
		return &sale.DuplicateError{}
	}
	return &sale.DuplicateError{SaleID: existing.ID}
}

func (r *PGRepository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*model.Sale, error) {
	var s model.Sale
	query := `SELECT * FROM sales WHERE user_id = $1 AND idempotency_key = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &s, query, userID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGRepository) FindAll(ctx context.Context, userID string) ([]model.Sale, error) {
	var sales []model.Sale
	query := `SELECT * FROM sales WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.DB.SelectContext(ctx, &sales, query, userID); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return sales, nil
	}

	ids := make([]string, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
	}

	items, err := r.itemsForSales(ctx, ids)
	if err != nil {
		return nil, err
	}

	bySale := make(map[string][]model.SaleItem, len(sales))
	for _, it := range items {
		bySale[it.SaleID] = append(bySale[it.SaleID], it)
	}
	for i := range sales {
		sales[i].Items = bySale[sales[i].ID]
	}
	return sales, nil
}

func (r *PGRepository) FindByID(ctx context.Context, userID, id string) (*model.Sale, error) {
	var s model.Sale
	query := `SELECT * FROM sales WHERE id = $1 AND user_id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &s, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	items, err := r.itemsForSales(ctx, []string{s.ID})
	if err != nil {
		return nil, err
	}
	s.Items = items
	return &s, nil
}

// itemsForSales loads items with the current product name joined in; the
// name may be missing when the product was deleted after the sale.
func (r *PGRepository) itemsForSales(ctx context.Context, saleIDs []string) ([]model.SaleItem, error) {
	query, args, err := sqlx.In(`
        SELECT si.*, p.name AS product_name
        FROM sale_items si
        LEFT JOIN products p ON p.id = si.product_id
        WHERE si.sale_id IN (?)
    `, saleIDs)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var items []model.SaleItem
	err = r.DB.SelectContext(ctx, &items, query, args...)
	return items, err
}
