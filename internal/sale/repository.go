package sale

import (
	"context"

	"github.com/hgonzalo/tienda-service/internal/model"
)

type Repository interface {
	// CreateSale persists the header, its items and the per-product stock
	// decrements as one atomic unit. decrements maps product id to the
	// summed quantity for this sale. On failure it returns one of the
	// typed errors from this package and nothing is left written (except
	// the unknown-outcome case reported as PartialCommitError).
	CreateSale(ctx context.Context, s *model.Sale, decrements map[string]int) error

	// FindByIdempotencyKey returns the sale previously committed under the
	// key, or nil.
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*model.Sale, error)

	FindAll(ctx context.Context, userID string) ([]model.Sale, error)
	FindByID(ctx context.Context, userID, id string) (*model.Sale, error)
}
