package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/product"
	"github.com/hgonzalo/tienda-service/internal/product/dto"
	"github.com/hgonzalo/tienda-service/pkg/logger"
)

type fakeProductRepo struct {
	products map[string]*model.Product

	created        *model.Product
	incrementCalls int
	lastIncrement  int
	lowStockLimit  int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*model.Product)}
}

func (f *fakeProductRepo) Create(ctx context.Context, p *model.Product) error {
	f.created = p
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, userID, id string) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	return p, nil
}

func (f *fakeProductRepo) FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	return nil, 0, nil
}

func (f *fakeProductRepo) Update(ctx context.Context, p *model.Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, userID, id string) error {
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) LowStock(ctx context.Context, userID string, limit int) ([]model.Product, error) {
	f.lowStockLimit = limit
	return nil, nil
}

func (f *fakeProductRepo) DecrementStock(ctx context.Context, userID, id string, amount int) error {
	return nil
}

func (f *fakeProductRepo) IncrementStock(ctx context.Context, userID, id string, amount int) error {
	f.incrementCalls++
	f.lastIncrement = amount
	return nil
}

func testLogger() logger.ZapLogger {
	return logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment: true,
		Encoding:      "console",
		Level:         "error",
	})
}

func strPtr(s string) *string { return &s }

func decPtr(i int64) *decimal.Decimal {
	d := decimal.NewFromInt(i)
	return &d
}

func validCreateInput() *dto.CreateProductInput {
	return &dto.CreateProductInput{
		UserID:        "owner-1",
		Name:          "Olive Oil 1L",
		Stock:         10,
		PurchasePrice: decimal.NewFromInt(80),
		SalePrice:     decimal.NewFromInt(120),
	}
}

func TestCreateProductValidation(t *testing.T) {
	uc := NewProductUseCase(newFakeProductRepo(), nil, nil, testLogger())

	t.Run("empty name", func(t *testing.T) {
		input := validCreateInput()
		input.Name = ""
		_, err := uc.CreateProduct(context.Background(), input)
		require.Error(t, err)
	})

	t.Run("negative stock", func(t *testing.T) {
		input := validCreateInput()
		input.Stock = -1
		_, err := uc.CreateProduct(context.Background(), input)
		require.Error(t, err)
	})

	t.Run("zero sale price", func(t *testing.T) {
		input := validCreateInput()
		input.SalePrice = decimal.Zero
		_, err := uc.CreateProduct(context.Background(), input)
		require.Error(t, err)
	})

	t.Run("net weight without unit", func(t *testing.T) {
		input := validCreateInput()
		input.NetWeight = decPtr(1)
		_, err := uc.CreateProduct(context.Background(), input)
		require.Error(t, err)
	})

	t.Run("unit without net weight", func(t *testing.T) {
		input := validCreateInput()
		input.WeightUnit = strPtr(model.WeightUnitL)
		_, err := uc.CreateProduct(context.Background(), input)
		require.Error(t, err)
	})

	t.Run("unknown unit", func(t *testing.T) {
		input := validCreateInput()
		input.NetWeight = decPtr(1)
		input.WeightUnit = strPtr("oz")
		_, err := uc.CreateProduct(context.Background(), input)
		require.Error(t, err)
	})

	t.Run("future purchase date", func(t *testing.T) {
		input := validCreateInput()
		future := time.Now().AddDate(0, 0, 1)
		input.PurchaseDate = &future
		_, err := uc.CreateProduct(context.Background(), input)
		require.Error(t, err)
	})

	t.Run("weight pair accepted", func(t *testing.T) {
		input := validCreateInput()
		input.NetWeight = decPtr(1)
		input.WeightUnit = strPtr(model.WeightUnitL)
		p, err := uc.CreateProduct(context.Background(), input)
		require.NoError(t, err)
		require.NotNil(t, p)
	})
}

func TestCreateProductAssignsIdentity(t *testing.T) {
	repo := newFakeProductRepo()
	uc := NewProductUseCase(repo, nil, nil, testLogger())

	p, err := uc.CreateProduct(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "owner-1", p.UserID)
	assert.False(t, p.CreatedAt.IsZero())
	require.NotNil(t, repo.created)
	assert.Equal(t, p.ID, repo.created.ID)
}

func TestUpdateProductNotFound(t *testing.T) {
	uc := NewProductUseCase(newFakeProductRepo(), nil, nil, testLogger())

	input := &dto.UpdateProductInput{
		ID:            "missing",
		UserID:        "owner-1",
		Name:          "Renamed",
		Stock:         1,
		PurchasePrice: decimal.NewFromInt(10),
		SalePrice:     decimal.NewFromInt(20),
	}
	_, err := uc.UpdateProduct(context.Background(), input)
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestUpdateProductScopedToOwner(t *testing.T) {
	repo := newFakeProductRepo()
	uc := NewProductUseCase(repo, nil, nil, testLogger())

	created, err := uc.CreateProduct(context.Background(), validCreateInput())
	require.NoError(t, err)

	input := &dto.UpdateProductInput{
		ID:            created.ID,
		UserID:        "other-owner",
		Name:          "Hijacked",
		Stock:         1,
		PurchasePrice: decimal.NewFromInt(10),
		SalePrice:     decimal.NewFromInt(20),
	}
	_, err = uc.UpdateProduct(context.Background(), input)
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestRestock(t *testing.T) {
	t.Run("rejects non-positive amounts", func(t *testing.T) {
		repo := newFakeProductRepo()
		uc := NewProductUseCase(repo, nil, nil, testLogger())

		err := uc.Restock(context.Background(), &dto.RestockInput{UserID: "owner-1", ProductID: "p1", Amount: 0})
		require.Error(t, err)
		assert.Equal(t, 0, repo.incrementCalls)
	})

	t.Run("delegates to the atomic increment", func(t *testing.T) {
		repo := newFakeProductRepo()
		uc := NewProductUseCase(repo, nil, nil, testLogger())

		err := uc.Restock(context.Background(), &dto.RestockInput{UserID: "owner-1", ProductID: "p1", Amount: 7})
		require.NoError(t, err)
		assert.Equal(t, 1, repo.incrementCalls)
		assert.Equal(t, 7, repo.lastIncrement)
	})
}

func TestLowStockDefaultsLimit(t *testing.T) {
	repo := newFakeProductRepo()
	uc := NewProductUseCase(repo, nil, nil, testLogger())

	_, err := uc.LowStockProducts(context.Background(), "owner-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.lowStockLimit)
}
