package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/sale"
	"github.com/hgonzalo/tienda-service/internal/sale/dto"
	"github.com/hgonzalo/tienda-service/pkg/broker"
	"github.com/hgonzalo/tienda-service/pkg/cache"
	"github.com/hgonzalo/tienda-service/pkg/logger"
)

type saleUseCase struct {
	repo     sale.Repository
	cache    *cache.RedisClient
	producer *broker.KafkaProducer
	logger   logger.ZapLogger
}

func NewSaleUseCase(repo sale.Repository, cache *cache.RedisClient, producer *broker.KafkaProducer, log logger.ZapLogger) sale.UseCase {
	return &saleUseCase{
		repo:     repo,
		cache:    cache,
		producer: producer,
		logger:   log,
	}
}

func (uc *saleUseCase) CreateSale(ctx context.Context, input *dto.CreateSaleInput) (string, error) {
	if input.UserID == "" {
		return "", &sale.ValidationError{Kind: sale.ValidationBadRequest, Reason: "missing owner id"}
	}
	if input.IdempotencyKey == "" {
		return "", &sale.ValidationError{Kind: sale.ValidationBadRequest, Reason: "missing idempotency key"}
	}
	if len(input.Lines) == 0 {
		return "", &sale.ValidationError{Kind: sale.ValidationEmptyCart, Reason: "cart is empty"}
	}

	derivedTotal := decimal.Zero
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return "", &sale.ValidationError{Kind: sale.ValidationBadLine, Reason: fmt.Sprintf("quantity for product %s must be greater than zero", line.ProductID)}
		}
		if line.UnitPrice.Sign() <= 0 {
			return "", &sale.ValidationError{Kind: sale.ValidationBadLine, Reason: fmt.Sprintf("unit price for product %s must be greater than zero", line.ProductID)}
		}
		derivedTotal = derivedTotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	// Never trust the caller's running total; a stale cart must not buy a
	// discount.
	if !derivedTotal.Equal(input.TotalAmount) {
		return "", &sale.ValidationError{Kind: sale.ValidationTotalMismatch, Reason: "total amount does not match cart lines"}
	}

	// Quantities for the same product are summed before the stock check so
	// duplicated lines cannot sneak past it.
	decrements := make(map[string]int)
	for _, line := range input.Lines {
		decrements[line.ProductID] += line.Quantity
	}

	saleID := uuid.New().String()
	now := time.Now()

	items := make([]model.SaleItem, len(input.Lines))
	for i, line := range input.Lines {
		items[i] = model.SaleItem{
			ID:         uuid.New().String(),
			SaleID:     saleID,
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		}
	}

	s := &model.Sale{
		ID:             saleID,
		UserID:         input.UserID,
		TotalAmount:    derivedTotal,
		IdempotencyKey: input.IdempotencyKey,
		CreatedAt:      now,
		Items:          items,
	}

	if err := uc.repo.CreateSale(ctx, s, decrements); err != nil {
		if pc, ok := err.(*sale.PartialCommitError); ok {
			fields := []zap.Field{
				zap.String("sale_id", pc.SaleID),
				zap.String("user_id", input.UserID),
				zap.String("idempotency_key", input.IdempotencyKey),
				zap.Error(pc.Err),
			}
			if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
				fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
			}
			uc.logger.Error("sale commit outcome unknown, needs reconciliation", fields...)
		}
		return "", err
	}

	go uc.invalidateProductCache(context.Background(), input.UserID)
	go uc.publishSaleCompleted(context.Background(), s)

	return saleID, nil
}

func (uc *saleUseCase) ListSales(ctx context.Context, userID string) ([]model.Sale, error) {
	return uc.repo.FindAll(ctx, userID)
}

func (uc *saleUseCase) GetSale(ctx context.Context, userID, id string) (*model.Sale, error) {
	return uc.repo.FindByID(ctx, userID, id)
}

func (uc *saleUseCase) invalidateProductCache(ctx context.Context, userID string) {
	if uc.cache == nil {
		return
	}
	pattern := fmt.Sprintf("products:list:%s:*", userID)
	keys, err := uc.cache.Client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		uc.cache.Client.Del(ctx, keys...)
	}
}

type saleCompletedEvent struct {
	EventID   string               `json:"event_id"`
	EventType string               `json:"event_type"`
	Payload   saleCompletedPayload `json:"payload"`
	Timestamp time.Time            `json:"timestamp"`
}

type saleCompletedPayload struct {
	SaleID      string          `json:"sale_id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []saleEventItem `json:"items"`
}

type saleEventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// publishSaleCompleted is best-effort: the sale is already durable, so a
// broker outage only costs downstream consumers an event.
func (uc *saleUseCase) publishSaleCompleted(ctx context.Context, s *model.Sale) {
	if uc.producer == nil {
		return
	}

	items := make([]saleEventItem, len(s.Items))
	for i, it := range s.Items {
		items[i] = saleEventItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	event := saleCompletedEvent{
		EventID:   uuid.New().String(),
		EventType: "SaleCompleted",
		Payload: saleCompletedPayload{
			SaleID:      s.ID,
			UserID:      s.UserID,
			TotalAmount: s.TotalAmount,
			Items:       items,
		},
		Timestamp: time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		uc.logger.Error("failed to marshal sale event", zap.Error(err))
		return
	}
	if err := uc.producer.Publish(ctx, []byte(s.UserID), value); err != nil {
		uc.logger.Error("failed to publish sale event", zap.String("sale_id", s.ID), zap.Error(err))
	}
}
