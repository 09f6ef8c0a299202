package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hgonzalo/tienda-service/internal/auth"
	"github.com/hgonzalo/tienda-service/internal/cart"
	"github.com/hgonzalo/tienda-service/internal/sale"
	"github.com/hgonzalo/tienda-service/internal/sale/dto"
	"github.com/hgonzalo/tienda-service/pkg/i18n"
	"github.com/hgonzalo/tienda-service/pkg/logger"
)

type SaleHandler struct {
	uc     sale.UseCase
	carts  *cart.Store
	logger logger.ZapLogger
}

func NewSaleHandler(uc sale.UseCase, carts *cart.Store, log logger.ZapLogger) *SaleHandler {
	return &SaleHandler{
		uc:     uc,
		carts:  carts,
		logger: log,
	}
}

type checkoutRequest struct {
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

// Checkout converts the session's cart into a sale. The cart is cleared
// only after the usecase confirms success, never preemptively.
func (h *SaleHandler) Checkout(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())
	sessionID := c.GetHeader("X-Session-ID")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-Session-ID header"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionCart := h.carts.Get(ownerID + ":" + sessionID)
	lines := sessionCart.Lines()

	input := &dto.CreateSaleInput{
		UserID:         ownerID,
		IdempotencyKey: req.IdempotencyKey,
		TotalAmount:    sessionCart.TotalAmount(),
		Lines:          make([]dto.SaleLine, len(lines)),
	}
	for i, l := range lines {
		input.Lines[i] = dto.SaleLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}

	saleID, err := h.uc.CreateSale(c.Request.Context(), input)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}

	sessionCart.Clear()
	c.JSON(http.StatusCreated, gin.H{"sale_id": saleID})
}

func (h *SaleHandler) respondCheckoutError(c *gin.Context, err error) {
	var (
		validationErr *sale.ValidationError
		conflictErr   *sale.StockConflictError
		duplicateErr  *sale.DuplicateError
		partialErr    *sale.PartialCommitError
	)

	switch {
	case errors.As(err, &validationErr):
		var msgID string
		switch validationErr.Kind {
		case sale.ValidationEmptyCart:
			msgID = "checkout.empty_cart"
		case sale.ValidationTotalMismatch:
			msgID = "checkout.total_mismatch"
		case sale.ValidationBadLine:
			msgID = "product.invalid"
		default:
			msgID = "error.generic"
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  i18n.T(lang(c), msgID, nil),
			"reason": validationErr.Reason,
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": i18n.T(lang(c), "checkout.stock_conflict", map[string]interface{}{
				"Products": strings.Join(conflictErr.ProductIDs, ", "),
			}),
			"product_ids": conflictErr.ProductIDs,
		})
	case errors.As(err, &duplicateErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":   i18n.T(lang(c), "checkout.duplicate", nil),
			"sale_id": duplicateErr.SaleID,
		})
	case errors.As(err, &partialErr):
		// Never reported as success; the details are already logged for
		// reconciliation by the usecase.
		c.JSON(http.StatusInternalServerError, gin.H{"error": i18n.T(lang(c), "checkout.failed", nil)})
	default:
		h.logger.Error("checkout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": i18n.T(lang(c), "checkout.failed", nil)})
	}
}

func (h *SaleHandler) List(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())

	sales, err := h.uc.ListSales(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to list sales", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": i18n.T(lang(c), "error.generic", nil)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sales": sales})
}

func (h *SaleHandler) Get(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())

	s, err := h.uc.GetSale(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		h.logger.Error("failed to get sale", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": i18n.T(lang(c), "error.generic", nil)})
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sale not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sale": s})
}

func lang(c *gin.Context) string {
	return c.GetHeader("Accept-Language")
}
