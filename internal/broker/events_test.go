package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"checkout-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deliveryMessage(t *testing.T, orderID string, to models.DeliveryStatus) kafka.Message {
	t.Helper()
	event := models.DeliveryStatusChangedEvent{
		BaseEvent: NewBaseEvent(models.EventTypeDeliveryStatusChanged),
		OrderID:   orderID,
		From:      models.StatusPending,
		To:        to,
	}
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(orderKey(orderID)), Value: raw}
}

func TestHandleMessage_RoutesDeliveryStatusChanged(t *testing.T) {
	eh := NewEventHandler()
	var got *models.DeliveryStatusChangedEvent
	eh.OnDeliveryStatusChanged(func(_ context.Context, e *models.DeliveryStatusChangedEvent) error {
		got = e
		return nil
	})

	err := eh.HandleMessage(context.Background(), deliveryMessage(t, "ord-1", models.StatusShipped))

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ord-1", got.OrderID)
	assert.Equal(t, models.StatusShipped, got.To)
	assert.NotEmpty(t, got.EventID)
}

func TestHandleMessage_PropagatesHandlerError(t *testing.T) {
	eh := NewEventHandler()
	eh.OnDeliveryStatusChanged(func(context.Context, *models.DeliveryStatusChangedEvent) error {
		return errors.New("db down")
	})

	err := eh.HandleMessage(context.Background(), deliveryMessage(t, "ord-1", models.StatusShipped))
	assert.Error(t, err)
}

func TestHandleMessage_IgnoresOtherEvents(t *testing.T) {
	eh := NewEventHandler()
	called := false
	eh.OnDeliveryStatusChanged(func(context.Context, *models.DeliveryStatusChangedEvent) error {
		called = true
		return nil
	})

	raw, err := json.Marshal(models.OrderPlacedEvent{BaseEvent: NewBaseEvent(models.EventTypeOrderPlaced), OrderID: "ord-1"})
	require.NoError(t, err)

	require.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: raw}))
	assert.False(t, called)
}

func TestHandleMessage_MalformedPayload(t *testing.T) {
	eh := NewEventHandler()
	err := eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)
}

func TestHeaderCarrier(t *testing.T) {
	c := &headerCarrier{}
	c.Set("traceparent", "00-abc-01")
	c.Set("traceparent", "00-def-01")

	assert.Equal(t, "00-def-01", c.Get("traceparent"))
	assert.Equal(t, []string{"traceparent"}, c.Keys())
	assert.Empty(t, c.Get("missing"))
}
