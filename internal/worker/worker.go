package worker

import (
	"context"

	"checkout-service/internal/broker"
	"checkout-service/internal/models"
	"checkout-service/internal/util"
)

// StatusChangeHandler applies a delivery status event
type StatusChangeHandler interface {
	HandleStatusChanged(ctx context.Context, event *models.DeliveryStatusChangedEvent) error
}

// DeliveryStatusWorker applies delivery status changes published by other
// instances of the admin panel
type DeliveryStatusWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewDeliveryStatusWorker creates a new delivery status worker
func NewDeliveryStatusWorker(consumer *broker.Consumer, handler StatusChangeHandler) *DeliveryStatusWorker {
	return &DeliveryStatusWorker{
		consumer:     consumer,
		eventHandler: NewEventHandler(handler),
	}
}

// NewEventHandler routes delivery events to handler
func NewEventHandler(handler StatusChangeHandler) *broker.EventHandler {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnDeliveryStatusChanged(handler.HandleStatusChanged)
	return eventHandler
}

// Start starts the worker
func (w *DeliveryStatusWorker) Start(ctx context.Context) error {
	util.GetLogger().Info("Starting delivery status worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *DeliveryStatusWorker) Stop() error {
	util.GetLogger().Info("Stopping delivery status worker")
	return w.consumer.Close()
}
