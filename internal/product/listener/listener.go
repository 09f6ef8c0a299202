package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hgonzalo/tienda-service/internal/product"
	"github.com/hgonzalo/tienda-service/internal/product/dto"
	"github.com/hgonzalo/tienda-service/pkg/broker"
	"github.com/hgonzalo/tienda-service/pkg/logger"
)

// eventLockTTL is the window during which a processed event id blocks
// redelivery of the same event.
const eventLockTTL = 5 * time.Minute

// Locker is the distributed-lock slice of the Redis client.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// RestockListener consumes stock-received events (warehouse deliveries
// recorded by an external system) and applies the increments.
type RestockListener struct {
	consumer *broker.KafkaConsumer
	uc       product.UseCase
	locks    Locker
	logger   logger.ZapLogger
}

func NewRestockListener(consumer *broker.KafkaConsumer, uc product.UseCase, locks Locker, logger logger.ZapLogger) *RestockListener {
	return &RestockListener{
		consumer: consumer,
		uc:       uc,
		locks:    locks,
		logger:   logger,
	}
}

func (l *RestockListener) Start(ctx context.Context) {
	l.logger.Info("Starting restock Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping restock Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type StockReceivedEvent struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Payload   RestockPayload `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

type RestockPayload struct {
	UserID string        `json:"user_id"`
	Items  []RestockItem `json:"items"`
}

type RestockItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (l *RestockListener) processMessage(ctx context.Context, value []byte) {
	var event StockReceivedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "StockReceived" {
		return
	}

	// Delivery is at-least-once; a per-event-id lock keeps a redelivered
	// event from incrementing stock twice within the TTL window.
	lockKey := "restock:event:" + event.EventID
	lockValue := uuid.New().String()
	acquired, err := l.locks.AcquireLock(ctx, lockKey, lockValue, eventLockTTL)
	if err != nil {
		l.logger.Error("Failed to acquire event lock", zap.String("event_id", event.EventID), zap.Error(err))
	}
	if !acquired {
		l.logger.Info("Skipping duplicate StockReceived event", zap.String("event_id", event.EventID))
		return
	}

	l.logger.Info("Processing StockReceived event", zap.String("event_id", event.EventID))

	failed := false
	for _, item := range event.Payload.Items {
		if item.Quantity <= 0 {
			continue
		}

		err := l.uc.Restock(ctx, &dto.RestockInput{
			UserID:    event.Payload.UserID,
			ProductID: item.ProductID,
			Amount:    item.Quantity,
		})
		if err != nil {
			failed = true
			l.logger.Error("Failed to restock product",
				zap.String("event_id", event.EventID),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}

	// On failure the lock is released so a redelivery can retry; on success
	// it is left to expire, acting as the dedupe window.
	if failed {
		if err := l.locks.ReleaseLock(ctx, lockKey, lockValue); err != nil {
			l.logger.Error("Failed to release event lock", zap.String("event_id", event.EventID), zap.Error(err))
		}
	}
}
