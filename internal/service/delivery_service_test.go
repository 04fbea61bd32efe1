package service

import (
	"context"
	"testing"

	"checkout-service/internal/broker"
	"checkout-service/internal/delivery"
	"checkout-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, store *memoryStore, id string, status models.DeliveryStatus) {
	t.Helper()
	require.NoError(t, store.CreateOrder(context.Background(), &models.Order{ID: id, UserID: "u1", Status: status}))
}

func statusEvent(orderID string, to models.DeliveryStatus) *models.DeliveryStatusChangedEvent {
	return &models.DeliveryStatusChangedEvent{
		BaseEvent: broker.NewBaseEvent(models.EventTypeDeliveryStatusChanged),
		OrderID:   orderID,
		To:        to,
	}
}

func TestUpdateStatus(t *testing.T) {
	store := newMemoryStore()
	events := &recordingPublisher{}
	svc := NewDeliveryService(store, events)
	seedOrder(t, store, "ord-1", models.StatusPending)

	order, err := svc.UpdateStatus(context.Background(), "ord-1", models.StatusShipped)

	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, order.Status)
	require.Len(t, events.changed, 1)
	assert.Equal(t, models.StatusPending, events.changed[0].From)
	assert.True(t, store.processed[events.changed[0].EventID])
}

func TestUpdateStatus_IllegalTransitions(t *testing.T) {
	store := newMemoryStore()
	events := &recordingPublisher{}
	svc := NewDeliveryService(store, events)
	seedOrder(t, store, "done", models.StatusDelivered)
	seedOrder(t, store, "open", models.StatusProcessing)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "done", models.StatusCancelled)
	assert.ErrorIs(t, err, delivery.ErrIllegalTransition)

	_, err = svc.UpdateStatus(ctx, "open", "lost")
	assert.ErrorIs(t, err, delivery.ErrIllegalTransition)

	_, err = svc.UpdateStatus(ctx, "missing", models.StatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	assert.Empty(t, events.changed)
}

func TestUpdateStatus_CancelFromActive(t *testing.T) {
	store := newMemoryStore()
	svc := NewDeliveryService(store, &recordingPublisher{})
	seedOrder(t, store, "ord-1", models.StatusInTransit)

	order, err := svc.UpdateStatus(context.Background(), "ord-1", models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, order.Status)
}

func TestHandleStatusChanged_AppliesOnce(t *testing.T) {
	store := newMemoryStore()
	svc := NewDeliveryService(store, &recordingPublisher{})
	seedOrder(t, store, "ord-1", models.StatusPending)
	ctx := context.Background()

	event := statusEvent("ord-1", models.StatusProcessing)
	require.NoError(t, svc.HandleStatusChanged(ctx, event))

	order, _ := store.GetOrderByID(ctx, "ord-1")
	assert.Equal(t, models.StatusProcessing, order.Status)

	store.orders["ord-1"].Status = models.StatusPending
	require.NoError(t, svc.HandleStatusChanged(ctx, event))
	order, _ = store.GetOrderByID(ctx, "ord-1")
	assert.Equal(t, models.StatusPending, order.Status, "replayed event is ignored")
}

func TestHandleStatusChanged_SkipsWhatCannotApply(t *testing.T) {
	store := newMemoryStore()
	svc := NewDeliveryService(store, &recordingPublisher{})
	seedOrder(t, store, "ord-1", models.StatusDelivered)
	ctx := context.Background()

	illegal := statusEvent("ord-1", models.StatusShipped)
	require.NoError(t, svc.HandleStatusChanged(ctx, illegal))
	assert.True(t, store.processed[illegal.EventID])

	unknown := statusEvent("ghost", models.StatusShipped)
	require.NoError(t, svc.HandleStatusChanged(ctx, unknown))
	assert.True(t, store.processed[unknown.EventID])

	order, _ := store.GetOrderByID(ctx, "ord-1")
	assert.Equal(t, models.StatusDelivered, order.Status)
}

func TestListOrders_ClampsPage(t *testing.T) {
	store := newMemoryStore()
	svc := NewDeliveryService(store, &recordingPublisher{})
	seedOrder(t, store, "a", models.StatusPending)
	seedOrder(t, store, "b", models.StatusPending)

	orders, err := svc.ListOrders(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
