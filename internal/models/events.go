package models

import "time"

// Event types
const (
	EventTypeOrderPlaced           = "ORDER_PLACED"
	EventTypeOrderPaid             = "ORDER_PAID"
	EventTypeDeliveryStatusChanged = "DELIVERY_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when an order is persisted
type OrderPlacedEvent struct {
	BaseEvent
	OrderID       string     `json:"order_id"`
	UserID        string     `json:"user_id"`
	Amount        int64      `json:"amount"`
	PaymentMethod string     `json:"payment_method"`
	Items         []LineItem `json:"items"`
}

// OrderPaidEvent published when a redirect payment is verified
type OrderPaidEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Amount  int64  `json:"amount"`
}

// DeliveryStatusChangedEvent published by the admin panel
type DeliveryStatusChangedEvent struct {
	BaseEvent
	OrderID string         `json:"order_id"`
	From    DeliveryStatus `json:"from"`
	To      DeliveryStatus `json:"to"`
}
