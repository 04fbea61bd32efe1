package checkout

import (
	"fmt"

	"checkout-service/internal/models"
)

// MethodController holds the selected payment method. It carries no payment
// data; it only decides which submission path runs and whether submission is
// currently allowed. Callers serialise access.
type MethodController struct {
	method models.PaymentMethod
}

// NewMethodController creates a controller with the token-based method selected
func NewMethodController() *MethodController {
	return &MethodController{method: models.MethodTokenBased}
}

// Method returns the selected method
func (mc *MethodController) Method() models.PaymentMethod {
	return mc.method
}

// Select switches the active method and reports whether it changed.
func (mc *MethodController) Select(method models.PaymentMethod) (bool, error) {
	if !method.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if method == mc.method {
		return false, nil
	}
	mc.method = method
	return true, nil
}

// CanSubmit reports whether submission is allowed given the current token.
func (mc *MethodController) CanSubmit(token string) bool {
	return mc.method != models.MethodTokenBased || token != ""
}
