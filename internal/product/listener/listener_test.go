package listener

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgonzalo/tienda-service/internal/model"
	"github.com/hgonzalo/tienda-service/internal/product/dto"
	"github.com/hgonzalo/tienda-service/pkg/logger"
)

type fakeRestockUC struct {
	restockErr error
	inputs     []*dto.RestockInput
}

func (f *fakeRestockUC) Restock(ctx context.Context, input *dto.RestockInput) error {
	f.inputs = append(f.inputs, input)
	return f.restockErr
}

func (f *fakeRestockUC) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	return nil, nil
}

func (f *fakeRestockUC) GetProduct(ctx context.Context, userID, id string) (*model.Product, error) {
	return nil, nil
}

func (f *fakeRestockUC) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	return nil, 0, nil
}

func (f *fakeRestockUC) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	return nil, nil
}

func (f *fakeRestockUC) DeleteProduct(ctx context.Context, userID, id string) error { return nil }

func (f *fakeRestockUC) LowStockProducts(ctx context.Context, userID string, limit int) ([]model.Product, error) {
	return nil, nil
}

// fakeLocker grants each key once, like SETNX against a live Redis.
type fakeLocker struct {
	held     map[string]string
	releases []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string)}
}

func (f *fakeLocker) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if _, ok := f.held[key]; ok {
		return false, nil
	}
	f.held[key] = value
	return true, nil
}

func (f *fakeLocker) ReleaseLock(ctx context.Context, key, value string) error {
	if f.held[key] == value {
		delete(f.held, key)
	}
	f.releases = append(f.releases, key)
	return nil
}

func testLogger() logger.ZapLogger {
	return logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment: true,
		Encoding:      "console",
		Level:         "error",
	})
}

func stockReceived(t *testing.T, eventID string) []byte {
	t.Helper()
	value, err := json.Marshal(StockReceivedEvent{
		EventID:   eventID,
		EventType: "StockReceived",
		Payload: RestockPayload{
			UserID: "owner-1",
			Items: []RestockItem{
				{ProductID: "p1", Quantity: 4},
				{ProductID: "p2", Quantity: 0},
			},
		},
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	return value
}

func TestProcessMessageAppliesIncrements(t *testing.T) {
	uc := &fakeRestockUC{}
	l := NewRestockListener(nil, uc, newFakeLocker(), testLogger())

	l.processMessage(context.Background(), stockReceived(t, "evt-1"))

	require.Len(t, uc.inputs, 1) // zero-quantity item skipped
	assert.Equal(t, "owner-1", uc.inputs[0].UserID)
	assert.Equal(t, "p1", uc.inputs[0].ProductID)
	assert.Equal(t, 4, uc.inputs[0].Amount)
}

func TestProcessMessageDeduplicatesByEventID(t *testing.T) {
	uc := &fakeRestockUC{}
	locks := newFakeLocker()
	l := NewRestockListener(nil, uc, locks, testLogger())

	l.processMessage(context.Background(), stockReceived(t, "evt-1"))
	l.processMessage(context.Background(), stockReceived(t, "evt-1"))

	// The redelivered event must not increment stock a second time.
	require.Len(t, uc.inputs, 1)
	assert.Empty(t, locks.releases)

	l.processMessage(context.Background(), stockReceived(t, "evt-2"))
	assert.Len(t, uc.inputs, 2)
}

func TestProcessMessageReleasesLockOnFailure(t *testing.T) {
	uc := &fakeRestockUC{restockErr: errors.New("db down")}
	locks := newFakeLocker()
	l := NewRestockListener(nil, uc, locks, testLogger())

	l.processMessage(context.Background(), stockReceived(t, "evt-1"))

	// A failed event gives its lock back so redelivery can retry.
	require.Equal(t, []string{"restock:event:evt-1"}, locks.releases)

	uc.restockErr = nil
	l.processMessage(context.Background(), stockReceived(t, "evt-1"))
	assert.Len(t, uc.inputs, 2)
}

func TestProcessMessageIgnoresOtherEventTypes(t *testing.T) {
	uc := &fakeRestockUC{}
	locks := newFakeLocker()
	l := NewRestockListener(nil, uc, locks, testLogger())

	value, err := json.Marshal(StockReceivedEvent{EventID: "evt-9", EventType: "PriceChanged"})
	require.NoError(t, err)

	l.processMessage(context.Background(), value)

	assert.Empty(t, uc.inputs)
	assert.Empty(t, locks.held)
}
