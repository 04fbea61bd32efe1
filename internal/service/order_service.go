package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkout-service/internal/broker"
	"checkout-service/internal/checkout"
	"checkout-service/internal/delivery"
	"checkout-service/internal/models"
	"checkout-service/internal/store"
	"checkout-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrOrderNotFound  = store.ErrNotFound
	ErrVerifyInFlight = errors.New("order verification already in progress")
)

const (
	msgOrderPlaced    = "Order Placed"
	msgAmountMismatch = "Order amount does not match its items"
	msgEmptyOrder     = "Order has no items"
	msgStripeFailed   = "Could not start card payment, please try again"
	verifyLockTTL     = 30 * time.Second
)

// OrderStore is the persistence the order services need
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error)
	ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error)
	MarkOrderPaid(ctx context.Context, id string) error
	DeleteOrder(ctx context.Context, id string) error
	UpdateOrderStatus(ctx context.Context, id string, from, to models.DeliveryStatus) error
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// EventPublisher publishes order domain events
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishDeliveryStatusChanged(ctx context.Context, event *models.DeliveryStatusChangedEvent) error
}

// CartStore clears a user's persisted cart
type CartStore interface {
	ClearCart(ctx context.Context, userID string) error
}

// RedirectCreator opens a hosted checkout page for a persisted order
type RedirectCreator interface {
	CreateRedirect(ctx context.Context, orderID string, items []models.LineItem, deliveryFee int64) (string, error)
}

// Locker guards against concurrent processing of the same order
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// OrderService handles order business logic
type OrderService struct {
	store       OrderStore
	carts       CartStore
	redirects   RedirectCreator
	locks       Locker
	events      EventPublisher
	deliveryFee int64
	logger      *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store OrderStore,
	carts CartStore,
	redirects RedirectCreator,
	locks Locker,
	events EventPublisher,
	deliveryFee int64,
) *OrderService {
	return &OrderService{
		store:       store,
		carts:       carts,
		redirects:   redirects,
		locks:       locks,
		events:      events,
		deliveryFee: deliveryFee,
		logger:      util.GetLogger(),
	}
}

// PlaceCOD persists a cash-on-delivery order and clears the user's cart
func (s *OrderService) PlaceCOD(ctx context.Context, userID string, payload models.OrderPayload) (*models.OrderResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceCOD")
	defer span.End()

	if res := s.checkPayload(payload); res != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_payload").Inc()
		return res, nil
	}

	order, err := s.persist(ctx, userID, payload, models.PaymentLabelCOD)
	if err != nil {
		return nil, err
	}

	if err := s.carts.ClearCart(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
	}

	util.OrdersPlacedTotal.WithLabelValues(string(models.MethodCOD)).Inc()
	return &models.OrderResult{Success: true, Message: msgOrderPlaced, OrderID: order.ID}, nil
}

// PlaceStripe persists an unpaid order and opens a Stripe checkout session
// for it. When Stripe refuses, the order is removed again.
func (s *OrderService) PlaceStripe(ctx context.Context, userID string, payload models.OrderPayload) (*models.OrderResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceStripe")
	defer span.End()

	if res := s.checkPayload(payload); res != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_payload").Inc()
		return res, nil
	}

	order, err := s.persist(ctx, userID, payload, models.PaymentLabelStripe)
	if err != nil {
		return nil, err
	}

	url, err := s.redirects.CreateRedirect(ctx, order.ID, payload.Items, s.deliveryFee)
	if err != nil {
		s.logger.Warn("Stripe session creation failed, removing order",
			zap.String("order_id", order.ID),
			zap.Error(err))
		util.OrdersFailedTotal.WithLabelValues("stripe_rejected").Inc()

		if delErr := s.store.DeleteOrder(ctx, order.ID); delErr != nil {
			s.logger.Error("Failed to remove order after Stripe failure",
				zap.String("order_id", order.ID),
				zap.Error(delErr))
		}
		return &models.OrderResult{Success: false, Message: msgStripeFailed}, nil
	}

	util.OrdersPlacedTotal.WithLabelValues(string(models.MethodStripe)).Inc()
	return &models.OrderResult{Success: true, RedirectURL: url, OrderID: order.ID}, nil
}

// VerifyStripe settles a Stripe order after the shopper returns from the
// hosted page. A successful payment marks the order paid and clears the
// cart; an abandoned one removes the order. Orders that are already paid, or
// were not placed through Stripe, are never changed.
func (s *OrderService) VerifyStripe(ctx context.Context, userID, orderID string, success bool) (*models.OrderResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.VerifyStripe")
	defer span.End()

	lockKey := "verify:" + orderID
	acquired, err := s.locks.AcquireLock(ctx, lockKey, verifyLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire verify lock: %w", err)
	}
	if !acquired {
		return nil, ErrVerifyInFlight
	}
	defer func() {
		if err := s.locks.ReleaseLock(ctx, lockKey); err != nil {
			s.logger.Warn("Failed to release verify lock", zap.String("order_id", orderID), zap.Error(err))
		}
	}()

	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != models.PaymentLabelStripe {
		return nil, fmt.Errorf("order %s is not a Stripe order: %w", orderID, ErrOrderNotFound)
	}

	// A paid order is settled; neither outcome may touch it again.
	if order.Payment {
		return &models.OrderResult{Success: true, OrderID: order.ID}, nil
	}

	if !success {
		if err := s.store.DeleteOrder(ctx, order.ID); err != nil {
			return nil, fmt.Errorf("failed to delete unpaid order: %w", err)
		}
		s.logger.Info("Unpaid Stripe order removed", zap.String("order_id", order.ID))
		return &models.OrderResult{Success: false}, nil
	}

	if err := s.store.MarkOrderPaid(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}
	util.OrdersPaidTotal.Inc()

	if err := s.carts.ClearCart(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
	}

	event := &models.OrderPaidEvent{
		BaseEvent: broker.NewBaseEvent(models.EventTypeOrderPaid),
		OrderID:   order.ID,
		UserID:    order.UserID,
		Amount:    order.Amount,
	}
	if err := s.events.PublishOrderPaid(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
	}

	return &models.OrderResult{Success: true, OrderID: order.ID}, nil
}

// ListUserOrders returns the user's order history, newest first
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListUserOrders")
	defer span.End()

	return s.store.GetOrdersByUserID(ctx, userID)
}

// Tracking returns the progress view of one of the user's orders
func (s *OrderService) Tracking(ctx context.Context, userID, orderID string) (*delivery.Tracking, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	tracking := delivery.Track(order.Status)
	tracking.OrderID = order.ID
	return &tracking, nil
}

// GatewayFor binds the order endpoints to one user for a checkout session
func (s *OrderService) GatewayFor(userID string) checkout.OrderCreator {
	return &gateway{svc: s, userID: userID}
}

type gateway struct {
	svc    *OrderService
	userID string
}

func (g *gateway) CreateOrder(ctx context.Context, method models.PaymentMethod, payload models.OrderPayload) (*models.OrderResult, error) {
	switch method {
	case models.MethodCOD:
		return g.svc.PlaceCOD(ctx, g.userID, payload)
	case models.MethodStripe:
		return g.svc.PlaceStripe(ctx, g.userID, payload)
	default:
		return nil, fmt.Errorf("no order endpoint for %q: %w", method, checkout.ErrUnknownMethod)
	}
}

func (s *OrderService) checkPayload(payload models.OrderPayload) *models.OrderResult {
	if len(payload.Items) == 0 {
		return &models.OrderResult{Success: false, Message: msgEmptyOrder}
	}
	if payload.Amount != checkout.OrderAmount(payload.Items, s.deliveryFee) {
		return &models.OrderResult{Success: false, Message: msgAmountMismatch}
	}
	return nil
}

func (s *OrderService) persist(ctx context.Context, userID string, payload models.OrderPayload, label string) (*models.Order, error) {
	order := &models.Order{
		ID:            uuid.New().String(),
		UserID:        userID,
		Items:         models.LineItems(payload.Items),
		Address:       payload.Address,
		Amount:        payload.Amount,
		PaymentMethod: label,
		Payment:       false,
		Status:        models.StatusPending,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("payment_method", label),
		zap.Int64("amount", order.Amount))

	event := &models.OrderPlacedEvent{
		BaseEvent:     broker.NewBaseEvent(models.EventTypeOrderPlaced),
		OrderID:       order.ID,
		UserID:        userID,
		Amount:        order.Amount,
		PaymentMethod: label,
		Items:         payload.Items,
	}
	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return order, nil
}

func (s *OrderService) ownedOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	return order, nil
}
