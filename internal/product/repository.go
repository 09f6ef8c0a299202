package product

import (
	"context"

	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, userID, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, userID, id string) error

	// LowStock returns up to limit products ordered by ascending stock.
	LowStock(ctx context.Context, userID string, limit int) ([]model.Product, error)

	// Stock mutation primitives. Both are relative atomic updates; neither
	// reads stock into the application first. DecrementStock fails with
	// ErrInsufficientStock when the product cannot cover amount.
	DecrementStock(ctx context.Context, userID, id string, amount int) error
	IncrementStock(ctx context.Context, userID, id string, amount int) error
}
