package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/product"
	"github.com/hgonzalo/tienda-service/internal/product/dto"
	"github.com/hgonzalo/tienda-service/pkg/cache"
	"github.com/hgonzalo/tienda-service/pkg/logger"
	"github.com/hgonzalo/tienda-service/pkg/search"
)

const productIndex = "products"

type productUseCase struct {
	repo   product.Repository
	cache  *cache.RedisClient
	es     *search.Client
	logger logger.ZapLogger
}

func NewProductUseCase(repo product.Repository, cache *cache.RedisClient, es *search.Client, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		cache:  cache,
		es:     es,
		logger: log,
	}
}

func validateProductFields(name string, stock int, purchasePrice, salePrice decimal.Decimal, netWeight *decimal.Decimal, weightUnit *string, purchaseDate *time.Time) error {
	if name == "" {
		return errors.New("name must not be empty")
	}
	if stock < 0 {
		return errors.New("stock must not be negative")
	}
	if purchasePrice.Sign() <= 0 {
		return errors.New("purchase price must be greater than zero")
	}
	if salePrice.Sign() <= 0 {
		return errors.New("sale price must be greater than zero")
	}
	// net_weight and weight_unit come as a pair or not at all
	if (netWeight != nil) != (weightUnit != nil) {
		return errors.New("net weight and weight unit must be provided together")
	}
	if netWeight != nil && netWeight.Sign() <= 0 {
		return errors.New("net weight must be greater than zero")
	}
	if weightUnit != nil && !model.ValidWeightUnit(*weightUnit) {
		return errors.New("weight unit must be one of ml, mg, l, kg")
	}
	if purchaseDate != nil && purchaseDate.After(time.Now()) {
		return errors.New("purchase date must not be in the future")
	}
	return nil
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if err := validateProductFields(input.Name, input.Stock, input.PurchasePrice, input.SalePrice, input.NetWeight, input.WeightUnit, input.PurchaseDate); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	now := time.Now()

	p := &model.Product{
		BaseModel:     model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		UserID:        input.UserID,
		Name:          input.Name,
		Stock:         input.Stock,
		PurchasePrice: input.PurchasePrice,
		SalePrice:     input.SalePrice,
		NetWeight:     input.NetWeight,
		WeightUnit:    input.WeightUnit,
		PurchaseDate:  input.PurchaseDate,
		Branch:        input.Branch,
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidateProductCache(context.Background(), input.UserID)
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, userID, id string) (*model.Product, error) {
	return uc.repo.FindByID(ctx, userID, id)
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		val, err := uc.cache.Client.Get(ctx, cacheKey).Result()
		if err == nil {
			var result struct {
				Products []model.Product
				Count    int
			}
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Products, result.Count, nil
			}
		}
	}

	// Name search goes through Elasticsearch when available; the DB ILIKE
	// query remains the fallback.
	if filters.SearchQuery != "" && uc.es != nil {
		q := map[string]interface{}{
			"query": map[string]interface{}{
				"bool": map[string]interface{}{
					"must": []map[string]interface{}{
						{
							"match_phrase_prefix": map[string]interface{}{
								"name": filters.SearchQuery,
							},
						},
						{
							"term": map[string]interface{}{
								"user_id": filters.UserID,
							},
						},
					},
				},
			},
		}
		if filters.PageSize > 0 {
			q["size"] = filters.PageSize
			q["from"] = (filters.Page - 1) * filters.PageSize
		}

		res, err := uc.es.Search(ctx, productIndex, q)
		if err == nil {
			var esProducts []model.Product
			for _, hit := range res.Hits.Hits {
				var p model.Product
				if err := json.Unmarshal(hit.Source, &p); err == nil {
					esProducts = append(esProducts, p)
				}
			}
			return esProducts, res.Hits.Total.Value, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" && uc.cache != nil {
		cacheData := struct {
			Products []model.Product
			Count    int
		}{
			Products: products,
			Count:    count,
		}
		if data, err := json.Marshal(cacheData); err == nil {
			uc.cache.Client.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}

	return products, count, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	if err := validateProductFields(input.Name, input.Stock, input.PurchasePrice, input.SalePrice, input.NetWeight, input.WeightUnit, input.PurchaseDate); err != nil {
		return nil, err
	}

	p, err := uc.repo.FindByID(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, product.ErrNotFound
	}

	p.Name = input.Name
	p.Stock = input.Stock
	p.PurchasePrice = input.PurchasePrice
	p.SalePrice = input.SalePrice
	p.NetWeight = input.NetWeight
	p.WeightUnit = input.WeightUnit
	p.PurchaseDate = input.PurchaseDate
	p.Branch = input.Branch
	p.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidateProductCache(context.Background(), p.UserID)
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, userID, id string) error {
	p, err := uc.repo.FindByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if p == nil {
		return nil // Already deleted
	}

	if err := uc.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	go uc.invalidateProductCache(context.Background(), userID)
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), productIndex, id); err != nil {
				uc.logger.Error("failed to delete product from ES", zap.Error(err))
			}
		}()
	}

	return nil
}

func (uc *productUseCase) LowStockProducts(ctx context.Context, userID string, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 3
	}
	return uc.repo.LowStock(ctx, userID, limit)
}

func (uc *productUseCase) Restock(ctx context.Context, input *dto.RestockInput) error {
	if input.Amount <= 0 {
		return errors.New("restock amount must be greater than zero")
	}

	if err := uc.repo.IncrementStock(ctx, input.UserID, input.ProductID, input.Amount); err != nil {
		return err
	}

	go uc.invalidateProductCache(context.Background(), input.UserID)
	return nil
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%s:%x", filters.UserID, md5.Sum(data)), nil
}

func (uc *productUseCase) invalidateProductCache(ctx context.Context, userID string) {
	if uc.cache == nil {
		return
	}
	pattern := fmt.Sprintf("products:list:%s:*", userID)
	keys, err := uc.cache.Client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		uc.cache.Client.Del(ctx, keys...)
	}
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}

	mapping := `{
		"mappings": {
			"properties": {
				"user_id": { "type": "keyword" },
				"name": { "type": "text" },
				"stock": { "type": "integer" },
				"sale_price": { "type": "double" },
				"created_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, productIndex, mapping)

	if err := uc.es.Index(ctx, productIndex, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.Error(err))
	}
}
