package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgonzalo/tienda-service/internal/auth"
	"github.com/hgonzalo/tienda-service/internal/cart"
	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/sale"
	"github.com/hgonzalo/tienda-service/internal/sale/dto"
	"github.com/hgonzalo/tienda-service/pkg/i18n"
	"github.com/hgonzalo/tienda-service/pkg/logger"
)

type fakeSaleUseCase struct {
	createErr error
	saleID    string
}

func (f *fakeSaleUseCase) CreateSale(ctx context.Context, input *dto.CreateSaleInput) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.saleID, nil
}

func (f *fakeSaleUseCase) ListSales(ctx context.Context, userID string) ([]model.Sale, error) {
	return nil, nil
}

func (f *fakeSaleUseCase) GetSale(ctx context.Context, userID, id string) (*model.Sale, error) {
	return nil, nil
}

func testLogger() logger.ZapLogger {
	return logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment: true,
		Encoding:      "console",
		Level:         "error",
	})
}

func checkoutRouter(uc *fakeSaleUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithOwnerID(c.Request.Context(), "owner-1"))
	})

	h := NewSaleHandler(uc, cart.NewStore(time.Minute), testLogger())
	router.POST("/sales/checkout", h.Checkout)
	return router
}

func doCheckout(t *testing.T, router *gin.Engine) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(gin.H{"idempotency_key": "key-1"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sales/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "session-1")
	router.ServeHTTP(rec, req)
	return rec
}

// Each checkout failure kind must surface its own message. A bad line must
// not be reported as a stale total just because both are validation errors.
func TestCheckoutErrorResponses(t *testing.T) {
	i18n.Init()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "empty cart",
			err:        &sale.ValidationError{Kind: sale.ValidationEmptyCart, Reason: "cart has no lines"},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  i18n.T("", "checkout.empty_cart", nil),
		},
		{
			name:       "bad line",
			err:        &sale.ValidationError{Kind: sale.ValidationBadLine, Reason: "quantity must be positive"},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  i18n.T("", "product.invalid", nil),
		},
		{
			name:       "total mismatch",
			err:        &sale.ValidationError{Kind: sale.ValidationTotalMismatch, Reason: "total does not match lines"},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  i18n.T("", "checkout.total_mismatch", nil),
		},
		{
			name:       "bad request",
			err:        &sale.ValidationError{Kind: sale.ValidationBadRequest, Reason: "missing user id"},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  i18n.T("", "error.generic", nil),
		},
		{
			name:       "partial commit is never success",
			err:        &sale.PartialCommitError{SaleID: "s1", Err: errors.New("commit lost")},
			wantStatus: http.StatusInternalServerError,
			wantError:  i18n.T("", "checkout.failed", nil),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := checkoutRouter(&fakeSaleUseCase{createErr: tc.err})
			rec := doCheckout(t, router)

			require.Equal(t, tc.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantError, body["error"])
		})
	}
}

func TestCheckoutStockConflict(t *testing.T) {
	i18n.Init()

	router := checkoutRouter(&fakeSaleUseCase{
		createErr: &sale.StockConflictError{ProductIDs: []string{"p1", "p2"}},
	})
	rec := doCheckout(t, router)

	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Error      string   `json:"error"`
		ProductIDs []string `json:"product_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"p1", "p2"}, body.ProductIDs)
	assert.Contains(t, body.Error, "p1, p2")
}

func TestCheckoutDuplicateReturnsOriginalSale(t *testing.T) {
	i18n.Init()

	router := checkoutRouter(&fakeSaleUseCase{
		createErr: &sale.DuplicateError{SaleID: "s-original"},
	})
	rec := doCheckout(t, router)

	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		SaleID string `json:"sale_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "s-original", body.SaleID)
}
