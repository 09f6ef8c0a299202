package product

import (
	"context"
	"errors"

	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/product/dto"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, userID, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, userID, id string) error

	LowStockProducts(ctx context.Context, userID string, limit int) ([]model.Product, error)
	Restock(ctx context.Context, input *dto.RestockInput) error
}
