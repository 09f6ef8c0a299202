package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hgonzalo/tienda-service/internal/auth"
	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/report"
	"github.com/hgonzalo/tienda-service/pkg/logger"
)

type ReportHandler struct {
	uc     report.UseCase
	logger logger.ZapLogger
}

func NewReportHandler(uc report.UseCase, log logger.ZapLogger) *ReportHandler {
	return &ReportHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ReportHandler) Stats(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())

	stats, err := h.uc.Stats(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to build sales stats", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"stats": &report.Stats{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *ReportHandler) BestSeller(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())

	best, err := h.uc.BestSellingProduct(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to find best seller", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"best_seller": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"best_seller": best})
}

func (h *ReportHandler) LowStock(c *gin.Context) {
	ownerID := auth.OwnerID(c.Request.Context())

	products, err := h.uc.LowStockProducts(c.Request.Context(), ownerID)
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
