// Package provider holds what the payment provider adapters share.
package provider

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a provider answers 2xx without the
// field the caller needs.
var ErrMalformedResponse = errors.New("malformed provider response")

// ProviderError is a provider-side rejection.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s rejected request (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsRejection reports whether err is a provider-side rejection.
func IsRejection(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
