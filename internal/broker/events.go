package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events. Order lifecycle events
// and delivery status events go to separate topics.
type EventPublisher struct {
	orders   *Producer
	delivery *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(orders, delivery *Producer) *EventPublisher {
	return &EventPublisher{orders: orders, delivery: delivery}
}

// NewBaseEvent stamps an event envelope with a fresh id
func NewBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order-%s", orderID)
}

// PublishOrderPlaced publishes OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	return ep.orders.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderPaid publishes OrderPaid event
func (ep *EventPublisher) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	return ep.orders.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishDeliveryStatusChanged publishes DeliveryStatusChanged event
func (ep *EventPublisher) PublishDeliveryStatusChanged(ctx context.Context, event *models.DeliveryStatusChangedEvent) error {
	return ep.delivery.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onDeliveryStatusChanged func(context.Context, *models.DeliveryStatusChangedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnDeliveryStatusChanged registers a handler for DeliveryStatusChanged events
func (eh *EventHandler) OnDeliveryStatusChanged(handler func(context.Context, *models.DeliveryStatusChangedEvent) error) {
	eh.onDeliveryStatusChanged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	logger := util.GetLogger()
	logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID),
	)

	switch baseEvent.EventType {
	case models.EventTypeDeliveryStatusChanged:
		if eh.onDeliveryStatusChanged != nil {
			var event models.DeliveryStatusChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal DeliveryStatusChanged event: %w", err)
			}
			return eh.onDeliveryStatusChanged(ctx, &event)
		}

	default:
		logger.Debug("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
