package service

import (
	"context"
	"errors"
	"fmt"

	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var ErrInvalidPreference = errors.New("invalid preference request")

// PreferenceProvider issues payment session tokens for the embedded widget
type PreferenceProvider interface {
	CreatePaymentSession(ctx context.Context, items []models.PreferenceItem, payerEmail string) (string, error)
}

// PaymentService fronts the token-based payment provider
type PaymentService struct {
	provider PreferenceProvider
	validate *validator.Validate
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(provider PreferenceProvider) *PaymentService {
	v := validator.New()
	v.SetTagName("binding")
	return &PaymentService{
		provider: provider,
		validate: v,
		logger:   util.GetLogger(),
	}
}

// CreatePaymentSession validates the items and asks the provider for a
// preference id
func (ps *PaymentService) CreatePaymentSession(ctx context.Context, items []models.PreferenceItem, payerEmail string) (string, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreatePaymentSession")
	defer span.End()

	if len(items) == 0 {
		return "", fmt.Errorf("%w: no items", ErrInvalidPreference)
	}
	for i := range items {
		if err := ps.validate.Struct(items[i]); err != nil {
			return "", fmt.Errorf("%w: item %d: %v", ErrInvalidPreference, i, err)
		}
	}

	token, err := ps.provider.CreatePaymentSession(ctx, items, payerEmail)
	if err != nil {
		ps.logger.Warn("Preference creation failed",
			zap.Int("items", len(items)),
			zap.Error(err))
		return "", err
	}

	ps.logger.Debug("Preference created", zap.String("preference_id", token))
	return token, nil
}
