package api

import (
	"errors"
	"net/http"

	"checkout-service/internal/checkout"
	"checkout-service/internal/delivery"
	"checkout-service/internal/provider"
	"checkout-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, checkout.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, delivery.ErrIllegalTransition),
		errors.Is(err, checkout.ErrUnknownMethod),
		errors.Is(err, checkout.ErrMissingPayerFields),
		errors.Is(err, checkout.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidPreference):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrPaymentNotReady),
		errors.Is(err, service.ErrVerifyInFlight):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrOrderRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, checkout.ErrMalformedResponse),
		errors.Is(err, provider.ErrMalformedResponse),
		provider.IsRejection(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "message": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Invalid request body",
		"details": err.Error(),
	})
}
