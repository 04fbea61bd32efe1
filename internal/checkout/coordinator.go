package checkout

import (
	"context"
	"fmt"

	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// OrderCreator is the order backend, keyed by payment method.
type OrderCreator interface {
	CreateOrder(ctx context.Context, method models.PaymentMethod, payload models.OrderPayload) (*models.OrderResult, error)
}

// CartClearer empties the shopper's cart after a confirmed order.
type CartClearer interface {
	ClearCart(ctx context.Context) error
}

// OrderHistoryRoute is where the shopper lands after a cash-on-delivery order.
const OrderHistoryRoute = "/orders"

const (
	msgPaymentLoading = "Payment options are still loading, please wait"
	msgMissingFields  = "Please fill in all delivery information"
	msgEmptyCart      = "Your cart is empty"
	msgOrderFailed    = "Could not place your order, please try again"
	msgWidgetApproved = "Payment approved"
	msgWidgetFailed   = "Payment could not be completed"
)

// Submission is everything the coordinator needs from the session.
type Submission struct {
	Method models.PaymentMethod
	Token  string
	Payer  models.Payer
	Items  []models.LineItem
}

// Outcome describes a successful submission.
type Outcome struct {
	OrderID     string `json:"orderId,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	WidgetToken string `json:"widgetToken,omitempty"`
}

// Coordinator dispatches a submission to the method's backend and turns the
// result into either the success path or an inline notification. No failure
// path touches the cart or navigates.
type Coordinator struct {
	orders      OrderCreator
	cart        CartClearer
	notifier    Notifier
	navigator   Navigator
	deliveryFee int64
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewCoordinator creates a new submission coordinator
func NewCoordinator(orders OrderCreator, cart CartClearer, notifier Notifier, navigator Navigator, deliveryFee int64) *Coordinator {
	v := validator.New()
	v.SetTagName("binding")
	return &Coordinator{
		orders:      orders,
		cart:        cart,
		notifier:    notifier,
		navigator:   navigator,
		deliveryFee: deliveryFee,
		validate:    v,
		logger:      util.GetLogger(),
	}
}

// BuildPayload assembles the order creation request.
func (c *Coordinator) BuildPayload(payer models.Payer, items []models.LineItem) models.OrderPayload {
	copied := make([]models.LineItem, len(items))
	copy(copied, items)
	return models.OrderPayload{
		Address: payer,
		Items:   copied,
		Amount:  OrderAmount(items, c.deliveryFee),
	}
}

// Submit runs one explicit submission.
func (c *Coordinator) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	ctx, span := util.StartSpan(ctx, "Coordinator.Submit")
	defer span.End()

	if err := c.validate.Struct(sub.Payer); err != nil {
		return nil, c.fail("missing_fields", msgMissingFields, fmt.Errorf("%w: %v", ErrMissingPayerFields, err))
	}
	if sub.Method == models.MethodTokenBased && sub.Token == "" {
		return nil, c.fail("payment_not_ready", msgPaymentLoading, ErrPaymentNotReady)
	}
	if len(sub.Items) == 0 {
		return nil, c.fail("empty_cart", msgEmptyCart, ErrEmptyOrder)
	}

	switch sub.Method {
	case models.MethodTokenBased:
		// The embedded widget charges with the token; nothing is sent from here.
		return &Outcome{WidgetToken: sub.Token}, nil
	case models.MethodCOD, models.MethodStripe:
	default:
		return nil, c.fail("unknown_method", msgOrderFailed, fmt.Errorf("%w: %q", ErrUnknownMethod, sub.Method))
	}

	payload := c.BuildPayload(sub.Payer, sub.Items)
	res, err := c.orders.CreateOrder(ctx, sub.Method, payload)
	if err != nil {
		return nil, c.fail("transport", msgOrderFailed, fmt.Errorf("create %s order: %w", sub.Method, err))
	}
	if res == nil {
		return nil, c.fail("malformed", msgOrderFailed, ErrMalformedResponse)
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = msgOrderFailed
		}
		return nil, c.fail("rejected", msg, fmt.Errorf("%w: %s", ErrOrderRejected, res.Message))
	}

	if sub.Method == models.MethodStripe {
		if res.RedirectURL == "" {
			return nil, c.fail("malformed", msgOrderFailed, fmt.Errorf("%w: missing redirect url", ErrMalformedResponse))
		}
		c.navigator.Redirect(res.RedirectURL)
		return &Outcome{OrderID: res.OrderID, RedirectURL: res.RedirectURL}, nil
	}

	if err := c.cart.ClearCart(ctx); err != nil {
		c.logger.Error("Failed to clear cart after order", zap.String("order_id", res.OrderID), zap.Error(err))
	}
	c.navigator.Navigate(OrderHistoryRoute)
	return &Outcome{OrderID: res.OrderID}, nil
}

// HandleWidgetResult reacts to the embedded widget's callback. The cart is
// left alone and no order is persisted on this path.
func (c *Coordinator) HandleWidgetResult(success bool, message string) {
	if success {
		c.notifier.Notify(LevelSuccess, msgWidgetApproved)
		return
	}
	if message == "" {
		message = msgWidgetFailed
	}
	c.notifier.Notify(LevelError, message)
}

func (c *Coordinator) fail(reason, message string, err error) error {
	util.SubmissionFailuresTotal.WithLabelValues(reason).Inc()
	c.logger.Warn("Order submission failed", zap.String("reason", reason), zap.Error(err))
	c.notifier.Notify(LevelError, message)
	return err
}
