// Package stripepay creates Stripe Checkout Sessions for redirect payments.
package stripepay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/provider"
	"checkout-service/internal/util"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

const providerName = "stripe"

// Stripe amounts are in the currency's minor unit.
const minorUnits = 100

type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type Client struct {
	sessions    sessionAPI
	currency    string
	frontendURL string
	logger      *zap.Logger
}

func NewClient(secretKey, currency, frontendURL string) *Client {
	sc := client.New(secretKey, nil)
	return newClient(sc.CheckoutSessions, currency, frontendURL)
}

func newClient(sessions sessionAPI, currency, frontendURL string) *Client {
	return &Client{
		sessions:    sessions,
		currency:    strings.ToLower(currency),
		frontendURL: frontendURL,
		logger:      util.GetLogger(),
	}
}

// CreateRedirect opens a checkout session for the order and returns the URL
// the shopper must be sent to.
func (c *Client) CreateRedirect(ctx context.Context, orderID string, items []models.LineItem, deliveryFee int64) (string, error) {
	ctx, span := util.StartSpan(ctx, "stripepay.CreateRedirect")
	defer span.End()

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(fmt.Sprintf("%s/verify?success=true&orderId=%s", c.frontendURL, orderID)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/verify?success=false&orderId=%s", c.frontendURL, orderID)),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  make([]*stripe.CheckoutSessionLineItemParams, 0, len(items)+1),
	}
	params.Context = ctx
	params.Metadata = map[string]string{"order_id": orderID}

	for _, item := range items {
		params.LineItems = append(params.LineItems, c.lineItem(item.Name, item.Price, int64(item.Quantity)))
	}
	params.LineItems = append(params.LineItems, c.lineItem("Delivery Charges", deliveryFee, 1))

	start := time.Now()
	sess, err := c.sessions.New(params)
	if err != nil {
		util.ProviderRequestDuration.WithLabelValues(providerName, "error").Observe(time.Since(start).Seconds())
		var se *stripe.Error
		if errors.As(err, &se) {
			c.logger.Warn("Stripe rejected checkout session",
				zap.String("order_id", orderID),
				zap.Int("status", se.HTTPStatusCode),
				zap.String("message", se.Msg))
			return "", &provider.ProviderError{Provider: providerName, StatusCode: se.HTTPStatusCode, Message: se.Msg}
		}
		return "", fmt.Errorf("failed to create stripe session: %w", err)
	}
	util.ProviderRequestDuration.WithLabelValues(providerName, "success").Observe(time.Since(start).Seconds())

	if sess == nil || sess.URL == "" {
		return "", fmt.Errorf("%w: stripe session without url", provider.ErrMalformedResponse)
	}
	return sess.URL, nil
}

func (c *Client) lineItem(name string, unitPrice, quantity int64) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(c.currency),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
			UnitAmount: stripe.Int64(unitPrice * minorUnits),
		},
		Quantity: stripe.Int64(quantity),
	}
}
