package sale

import (
	"context"

	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/sale/dto"
)

type UseCase interface {
	// CreateSale turns a finalized cart into a durable sale with stock
	// decrements applied. On success it returns the new sale id; the
	// caller must clear its cart only after this confirms success.
	CreateSale(ctx context.Context, input *dto.CreateSaleInput) (string, error)

	ListSales(ctx context.Context, userID string) ([]model.Sale, error)
	GetSale(ctx context.Context, userID, id string) (*model.Sale, error)
}
