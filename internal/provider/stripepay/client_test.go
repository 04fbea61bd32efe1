package stripepay

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"checkout-service/internal/models"
	"checkout-service/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

type fakeSessions struct {
	params *stripe.CheckoutSessionParams
	sess   *stripe.CheckoutSession
	err    error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.params = params
	return f.sess, f.err
}

var items = []models.LineItem{{ID: "P1", Name: "Amber Oud", Price: 50, Size: "M", Quantity: 2}}

func TestCreateRedirect_Success(t *testing.T) {
	fake := &fakeSessions{sess: &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/pay/cs_1"}}
	c := newClient(fake, "USD", "https://shop.example")

	url, err := c.CreateRedirect(context.Background(), "ord-1", items, 10)

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_1", url)
	require.Len(t, fake.params.LineItems, 2)
	first := fake.params.LineItems[0]
	assert.Equal(t, int64(5000), *first.PriceData.UnitAmount)
	assert.Equal(t, int64(2), *first.Quantity)
	assert.Equal(t, "usd", *first.PriceData.Currency)
	fee := fake.params.LineItems[1]
	assert.Equal(t, "Delivery Charges", *fee.PriceData.ProductData.Name)
	assert.Equal(t, int64(1000), *fee.PriceData.UnitAmount)
	assert.Equal(t, "https://shop.example/verify?success=true&orderId=ord-1", *fake.params.SuccessURL)
	assert.Equal(t, "https://shop.example/verify?success=false&orderId=ord-1", *fake.params.CancelURL)
}

func TestCreateRedirect_StripeError(t *testing.T) {
	fake := &fakeSessions{err: &stripe.Error{HTTPStatusCode: http.StatusBadRequest, Msg: "Invalid currency"}}
	c := newClient(fake, "usd", "https://shop.example")

	_, err := c.CreateRedirect(context.Background(), "ord-1", items, 10)

	var pe *provider.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Invalid currency", pe.Message)
}

func TestCreateRedirect_MissingURL(t *testing.T) {
	c := newClient(&fakeSessions{sess: &stripe.CheckoutSession{ID: "cs_1"}}, "usd", "https://shop.example")

	_, err := c.CreateRedirect(context.Background(), "ord-1", items, 10)

	assert.ErrorIs(t, err, provider.ErrMalformedResponse)
}
