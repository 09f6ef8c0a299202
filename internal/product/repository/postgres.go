package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/product"
	"github.com/hgonzalo/tienda-service/internal/product/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, user_id, name, stock, purchase_price, sale_price,
            net_weight, weight_unit, purchase_date, branch, created_at, updated_at
        )
        VALUES (
            :id, :user_id, :name, :stock, :purchase_price, :sale_price,
            :net_weight, :weight_unit, :purchase_date, :branch, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, userID, id string) (*model.Product, error) {
	var p model.Product
	query := `SELECT * FROM products WHERE id = $1 AND user_id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &p, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{"user_id = :user_id"}
	args := map[string]interface{}{"user_id": f.UserID}

	if f.SearchQuery != "" {
		conditions = append(conditions, "name ILIKE :search")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	// Whitelist sort fields to keep injection out of ORDER BY.
	orderBy := "created_at DESC"
	if f.SortBy != "" {
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "price":
			orderBy = "sale_price"
		case "stock":
			orderBy = "stock"
		case "created_at":
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s", whereClause, orderBy)

	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &products, args)
	if err != nil {
		return nil, 0, err
	}

	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET name = :name,
            stock = :stock,
            purchase_price = :purchase_price,
            sale_price = :sale_price,
            net_weight = :net_weight,
            weight_unit = :weight_unit,
            purchase_date = :purchase_date,
            branch = :branch,
            updated_at = :updated_at
        WHERE id = :id AND user_id = :user_id
    `
	res, err := r.DB.NamedExecContext(ctx, query, p)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, userID, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id = $1 AND user_id = $2", id, userID)
	return err
}

func (r *PGRepository) LowStock(ctx context.Context, userID string, limit int) ([]model.Product, error) {
	var products []model.Product
	query := `SELECT * FROM products WHERE user_id = $1 ORDER BY stock ASC LIMIT $2`
	err := r.DB.SelectContext(ctx, &products, query, userID, limit)
	return products, err
}

// DecrementStock applies "subtract N if stock >= N" as a single conditional
// UPDATE so concurrent sales cannot lose updates or drive stock negative.
func (r *PGRepository) DecrementStock(ctx context.Context, userID, id string, amount int) error {
	query := `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND stock >= $1
	`
	res, err := r.DB.ExecContext(ctx, query, amount, id, userID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return product.ErrInsufficientStock
	}
	return nil
}

func (r *PGRepository) IncrementStock(ctx context.Context, userID, id string, amount int) error {
	query := `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`
	res, err := r.DB.ExecContext(ctx, query, amount, id, userID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return product.ErrNotFound
	}
	return nil
}
