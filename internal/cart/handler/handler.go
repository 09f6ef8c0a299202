package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hgonzalo/tienda-service/internal/auth"
	"github.com/hgonzalo/tienda-service/internal/cart"
	"github.com/hgonzalo/tienda-service/internal/product"
	"github.com/hgonzalo/tienda-service/pkg/i18n"
	"github.com/hgonzalo/tienda-service/pkg/logger"
)

// CartHandler exposes the session cart. Carts are keyed by owner and
// session so a stolen session id cannot reach another user's cart.
type CartHandler struct {
	carts    *cart.Store
	products product.UseCase
	logger   logger.ZapLogger
}

func NewCartHandler(carts *cart.Store, products product.UseCase, log logger.ZapLogger) *CartHandler {
	return &CartHandler{
		carts:    carts,
		products: products,
		logger:   log,
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) sessionCart(c *gin.Context) (*cart.Cart, bool) {
	sessionID := c.GetHeader("X-Session-ID")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-Session-ID header"})
		return nil, false
	}
	ownerID := auth.OwnerID(c.Request.Context())
	return h.carts.Get(ownerID + ":" + sessionID), true
}

func (h *CartHandler) Get(c *gin.Context) {
	sessionCart, ok := h.sessionCart(c)
	if !ok {
		return
	}
	respondCart(c, sessionCart)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	sessionCart, ok := h.sessionCart(c)
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownerID := auth.OwnerID(c.Request.Context())
	p, err := h.products.GetProduct(c.Request.Context(), ownerID, req.ProductID)
	if err != nil {
		h.logger.Error("failed to load product for cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": i18n.T(lang(c), "error.generic", nil)})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": i18n.T(lang(c), "product.not_found", nil)})
		return
	}

	sessionCart.AddItem(cart.ProductInfo{
		ID:        p.ID,
		Name:      p.Name,
		UnitPrice: p.SalePrice,
		Stock:     p.Stock,
	})
	respondCart(c, sessionCart)
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	sessionCart, ok := h.sessionCart(c)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := sessionCart.UpdateQuantity(c.Param("id"), req.Quantity); err != nil {
		if errors.Is(err, cart.ErrInsufficientStock) {
			c.JSON(http.StatusConflict, gin.H{
				"error": i18n.T(lang(c), "checkout.stock_conflict", map[string]interface{}{
					"Products": c.Param("id"),
				}),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": i18n.T(lang(c), "error.generic", nil)})
		return
	}
	respondCart(c, sessionCart)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	sessionCart, ok := h.sessionCart(c)
	if !ok {
		return
	}
	sessionCart.RemoveItem(c.Param("id"))
	respondCart(c, sessionCart)
}

func (h *CartHandler) Clear(c *gin.Context) {
	sessionCart, ok := h.sessionCart(c)
	if !ok {
		return
	}
	sessionCart.Clear()
	c.Status(http.StatusNoContent)
}

func respondCart(c *gin.Context, sessionCart *cart.Cart) {
	lines := sessionCart.Lines()
	if lines == nil {
		lines = []cart.Line{}
	}
	c.JSON(http.StatusOK, gin.H{
		"lines":        lines,
		"total_items":  sessionCart.TotalItems(),
		"total_amount": sessionCart.TotalAmount(),
	})
}

func lang(c *gin.Context) string {
	return c.GetHeader("Accept-Language")
}
