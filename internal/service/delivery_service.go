package service

import (
	"context"
	"errors"
	"fmt"

	"checkout-service/internal/broker"
	"checkout-service/internal/delivery"
	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

const maxAdminPage = 200

// DeliveryService applies administrative delivery status changes
type DeliveryService struct {
	store  OrderStore
	events EventPublisher
	logger *zap.Logger
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(store OrderStore, events EventPublisher) *DeliveryService {
	return &DeliveryService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// ListOrders returns a page of all orders for the admin panel
func (s *DeliveryService) ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > maxAdminPage {
		limit = maxAdminPage
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListOrders(ctx, limit, offset)
}

// UpdateStatus moves an order to a new delivery status and announces it
func (s *DeliveryService) UpdateStatus(ctx context.Context, orderID string, to models.DeliveryStatus) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "DeliveryService.UpdateStatus")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if err := delivery.CanTransition(from, to); err != nil {
		return nil, err
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, from, to); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = to
	util.DeliveryStatusUpdatesTotal.WithLabelValues(string(to)).Inc()

	s.logger.Info("Delivery status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	event := &models.DeliveryStatusChangedEvent{
		BaseEvent: broker.NewBaseEvent(models.EventTypeDeliveryStatusChanged),
		OrderID:   orderID,
		From:      from,
		To:        to,
	}

	// Our own event needs no replay when it comes back from the topic.
	if err := s.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		s.logger.Warn("Failed to mark own event processed", zap.String("event_id", event.EventID), zap.Error(err))
	}
	if err := s.events.PublishDeliveryStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish DeliveryStatusChanged event", zap.Error(err))
	}

	return order, nil
}

// HandleStatusChanged applies a status change published by another
// instance. Each event id is applied at most once.
func (s *DeliveryService) HandleStatusChanged(ctx context.Context, event *models.DeliveryStatusChangedEvent) error {
	ctx, span := util.StartSpan(ctx, "DeliveryService.HandleStatusChanged")
	defer span.End()

	processed, err := s.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		s.logger.Debug("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	order, err := s.store.GetOrderByID(ctx, event.OrderID)
	if errors.Is(err, ErrOrderNotFound) {
		s.logger.Warn("Status change for unknown order", zap.String("order_id", event.OrderID))
		return s.markProcessed(ctx, event)
	}
	if err != nil {
		return err
	}

	if order.Status == event.To {
		return s.markProcessed(ctx, event)
	}

	if err := delivery.CanTransition(order.Status, event.To); err != nil {
		s.logger.Warn("Skipping illegal status change",
			zap.String("order_id", event.OrderID),
			zap.String("current", string(order.Status)),
			zap.String("to", string(event.To)),
			zap.Error(err))
		return s.markProcessed(ctx, event)
	}

	if err := s.store.UpdateOrderStatus(ctx, order.ID, order.Status, event.To); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	util.DeliveryStatusUpdatesTotal.WithLabelValues(string(event.To)).Inc()

	s.logger.Info("Delivery status applied from event",
		zap.String("order_id", order.ID),
		zap.String("event_id", event.EventID),
		zap.String("to", string(event.To)))

	return s.markProcessed(ctx, event)
}

func (s *DeliveryService) markProcessed(ctx context.Context, event *models.DeliveryStatusChangedEvent) error {
	if err := s.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}
