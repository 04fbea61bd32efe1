package checkout

import (
	"context"
	"errors"
	"testing"

	"checkout-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coordinatorFixture struct {
	orders *fakeOrders
	cart   *fakeClearer
	inbox  *Inbox
	c      *Coordinator
}

func newCoordinatorFixture(result *models.OrderResult, err error) *coordinatorFixture {
	f := &coordinatorFixture{
		orders: &fakeOrders{result: result, err: err},
		cart:   &fakeClearer{},
		inbox:  NewInbox(),
	}
	f.c = NewCoordinator(f.orders, f.cart, f.inbox, f.inbox, 10)
	return f
}

func submission(method models.PaymentMethod, token string) Submission {
	return Submission{
		Method: method,
		Token:  token,
		Payer:  testPayer(),
		Items:  []models.LineItem{{ID: "P1", Name: "Amber Oud", Price: 50, Size: "M", Quantity: 2}},
	}
}

func TestSubmit_CODSuccess(t *testing.T) {
	f := newCoordinatorFixture(&models.OrderResult{Success: true, OrderID: "ord-1"}, nil)

	out, err := f.c.Submit(context.Background(), submission(models.MethodCOD, ""))

	require.NoError(t, err)
	assert.Equal(t, "ord-1", out.OrderID)
	require.Len(t, f.orders.calls, 1)
	call := f.orders.calls[0]
	assert.Equal(t, models.MethodCOD, call.method)
	assert.Equal(t, int64(110), call.payload.Amount)
	assert.Equal(t, testPayer(), call.payload.Address)
	assert.Equal(t, 1, f.cart.cleared)
	assert.Equal(t, &Navigation{Kind: NavigationRoute, Target: OrderHistoryRoute}, f.inbox.Navigation())
	assert.Empty(t, f.inbox.Pending())
}

func TestSubmit_CODTwiceSendsTwoIdenticalRequests(t *testing.T) {
	f := newCoordinatorFixture(&models.OrderResult{Success: true}, nil)
	sub := submission(models.MethodCOD, "")

	_, err := f.c.Submit(context.Background(), sub)
	require.NoError(t, err)
	_, err = f.c.Submit(context.Background(), sub)
	require.NoError(t, err)

	require.Len(t, f.orders.calls, 2)
	assert.Equal(t, f.orders.calls[0].payload, f.orders.calls[1].payload)
}

func TestSubmit_CODApplicationFailureShowsServerMessage(t *testing.T) {
	f := newCoordinatorFixture(&models.OrderResult{Success: false, Message: "Address rejected"}, nil)

	_, err := f.c.Submit(context.Background(), submission(models.MethodCOD, ""))

	assert.ErrorIs(t, err, ErrOrderRejected)
	assert.Zero(t, f.cart.cleared)
	assert.Nil(t, f.inbox.Navigation())
	notes := f.inbox.Pending()
	require.Len(t, notes, 1)
	assert.Equal(t, "Address rejected", notes[0].Message)
}

func TestSubmit_StripeSuccessRedirects(t *testing.T) {
	f := newCoordinatorFixture(&models.OrderResult{Success: true, RedirectURL: "https://checkout.stripe.com/c/pay/cs_1"}, nil)

	out, err := f.c.Submit(context.Background(), submission(models.MethodStripe, ""))

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_1", out.RedirectURL)
	assert.Equal(t, &Navigation{Kind: NavigationExternal, Target: out.RedirectURL}, f.inbox.Navigation())
	assert.Zero(t, f.cart.cleared)
}

func TestSubmit_StripeFailuresAreHandledAlike(t *testing.T) {
	cases := map[string]*coordinatorFixture{
		"transport":   newCoordinatorFixture(nil, errors.New("connection refused")),
		"rejected":    newCoordinatorFixture(&models.OrderResult{Success: false, Message: "card declined"}, nil),
		"missing url": newCoordinatorFixture(&models.OrderResult{Success: true}, nil),
		"nil result":  newCoordinatorFixture(nil, nil),
	}

	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := f.c.Submit(context.Background(), submission(models.MethodStripe, ""))

			assert.Error(t, err)
			assert.Nil(t, out)
			assert.Nil(t, f.inbox.Navigation())
			assert.Zero(t, f.cart.cleared)
			notes := f.inbox.Pending()
			require.Len(t, notes, 1)
			assert.Equal(t, LevelError, notes[0].Level)
		})
	}
}

func TestSubmit_TokenBasedWithoutTokenMakesNoCall(t *testing.T) {
	f := newCoordinatorFixture(&models.OrderResult{Success: true}, nil)

	_, err := f.c.Submit(context.Background(), submission(models.MethodTokenBased, ""))

	assert.ErrorIs(t, err, ErrPaymentNotReady)
	assert.Empty(t, f.orders.calls)
	notes := f.inbox.Pending()
	require.Len(t, notes, 1)
	assert.Equal(t, msgPaymentLoading, notes[0].Message)
}

func TestSubmit_TokenBasedHandsTokenToWidget(t *testing.T) {
	f := newCoordinatorFixture(nil, nil)

	out, err := f.c.Submit(context.Background(), submission(models.MethodTokenBased, "pref-123"))

	require.NoError(t, err)
	assert.Equal(t, "pref-123", out.WidgetToken)
	assert.Empty(t, f.orders.calls)
	assert.Zero(t, f.cart.cleared)
}

func TestSubmit_MissingPayerField(t *testing.T) {
	f := newCoordinatorFixture(&models.OrderResult{Success: true}, nil)
	sub := submission(models.MethodCOD, "")
	sub.Payer.Zipcode = ""

	_, err := f.c.Submit(context.Background(), sub)

	assert.ErrorIs(t, err, ErrMissingPayerFields)
	assert.Empty(t, f.orders.calls)
}

func TestSubmit_EmptyItems(t *testing.T) {
	f := newCoordinatorFixture(&models.OrderResult{Success: true}, nil)
	sub := submission(models.MethodCOD, "")
	sub.Items = nil

	_, err := f.c.Submit(context.Background(), sub)

	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Empty(t, f.orders.calls)
}

func TestHandleWidgetResult(t *testing.T) {
	f := newCoordinatorFixture(nil, nil)

	f.c.HandleWidgetResult(true, "")
	f.c.HandleWidgetResult(false, "")

	notes := f.inbox.Drain()
	require.Len(t, notes, 2)
	assert.Equal(t, LevelSuccess, notes[0].Level)
	assert.Equal(t, LevelError, notes[1].Level)
	assert.Equal(t, msgWidgetFailed, notes[1].Message)
	assert.Zero(t, f.cart.cleared)
}
