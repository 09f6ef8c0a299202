package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hgonzalo/tienda-service/internal/auth"
	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/product"
	"github.com/hgonzalo/tienda-service/internal/product/dto"
	"github.com/hgonzalo/tienda-service/pkg/i18n"
	"github.com/hgonzalo/tienda-service/pkg/logger"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

type productRequest struct {
	Name          string           `json:"name" binding:"required"`
	Stock         int              `json:"stock" binding:"min=0"`
	PurchasePrice decimal.Decimal  `json:"purchase_price" binding:"required"`
	SalePrice     decimal.Decimal  `json:"sale_price" binding:"required"`
	NetWeight     *decimal.Decimal `json:"net_weight"`
	WeightUnit    *string          `json:"weight_unit" binding:"omitempty,oneof=ml mg l kg"`
	PurchaseDate  *string          `json:"purchase_date"` // YYYY-MM-DD
	Branch        *string          `json:"branch"`
}

type restockRequest struct {
	Amount int `json:"amount" binding:"required,gt=0"`
}

func (h *ProductHandler) Create(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "purchase_date must be YYYY-MM-DD"})
		return
	}

	p, err := h.uc.CreateProduct(c.Request.Context(), &dto.CreateProductInput{
		UserID:        ownerID,
		Name:          req.Name,
		Stock:         req.Stock,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		NetWeight:     req.NetWeight,
		WeightUnit:    req.WeightUnit,
		PurchaseDate:  purchaseDate,
		Branch:        req.Branch,
	})
	if err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": p})
}

func (h *ProductHandler) Get(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())

	p, err := h.uc.GetProduct(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		h.logger.Error("failed to get product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": i18n.T(lang(c), "error.generic", nil)})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": i18n.T(lang(c), "product.not_found", nil)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *ProductHandler) List(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())

	filters := &dto.ProductFilters{
		UserID:      ownerID,
		SearchQuery: c.Query("q"),
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 0),
	}

	products, count, err := h.uc.ListProducts(c.Request.Context(), filters)
	if err != nil {
		// Best-effort list views degrade to empty rather than erroring the UI.
		h.logger.Error("failed to list products", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"products": []model.Product{}, "total": 0})
		return
	}

	if products == nil {
		products = []model.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": count})
}

func (h *ProductHandler) Update(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "purchase_date must be YYYY-MM-DD"})
		return
	}

	p, err := h.uc.UpdateProduct(c.Request.Context(), &dto.UpdateProductInput{
		ID:            c.Param("id"),
		UserID:        ownerID,
		Name:          req.Name,
		Stock:         req.Stock,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		NetWeight:     req.NetWeight,
		WeightUnit:    req.WeightUnit,
		PurchaseDate:  purchaseDate,
		Branch:        req.Branch,
	})
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": i18n.T(lang(c), "product.not_found", nil)})
			return
		}
		h.logger.Error("failed to update product", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *ProductHandler) Delete(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())

	if err := h.uc.DeleteProduct(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		h.logger.Error("failed to delete product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": i18n.T(lang(c), "error.generic", nil)})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) LowStock(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())

	products, err := h.uc.LowStockProducts(c.Request.Context(), ownerID, queryInt(c, "limit", 3))
	if err != nil {
		h.logger.Error("failed to list low stock products", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"products": []model.Product{}})
		return
	}

	if products == nil {
		products = []model.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *ProductHandler) Restock(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())

	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.uc.Restock(c.Request.Context(), &dto.RestockInput{
		UserID:    ownerID,
		ProductID: c.Param("id"),
		Amount:    req.Amount,
	})
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": i18n.T(lang(c), "product.not_found", nil)})
			return
		}
		h.logger.Error("failed to restock product", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func lang(c *gin.Context) string {
	return c.GetHeader("Accept-Language")
}
