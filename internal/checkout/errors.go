package checkout

import "errors"

var (
	ErrPaymentNotReady    = errors.New("payment options are still loading")
	ErrMissingPayerFields = errors.New("payer details are incomplete")
	ErrEmptyOrder         = errors.New("cart is empty, nothing to order")
	ErrUnknownMethod      = errors.New("unknown payment method")
	ErrOrderRejected      = errors.New("order rejected by backend")
	ErrMalformedResponse  = errors.New("malformed order response")
	ErrSessionNotFound    = errors.New("checkout session not found")
)
