// Package tokenpay talks to the provider that issues payment preferences for
// the embedded checkout widget.
package tokenpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/provider"
	"checkout-service/internal/util"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const providerName = "tokenpay"

type Client struct {
	baseURL     string
	accessToken string
	currency    string
	frontendURL string
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewClient(baseURL, accessToken, currency, frontendURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		currency:    strings.ToUpper(currency),
		frontendURL: frontendURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: util.GetLogger(),
	}
}

type preferenceItem struct {
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	CurrencyID string `json:"currency_id"`
}

type preferencePayer struct {
	Email string `json:"email"`
}

type backURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type preferenceRequest struct {
	Items      []preferenceItem `json:"items"`
	Payer      preferencePayer  `json:"payer"`
	BackURLs   backURLs         `json:"back_urls"`
	AutoReturn string           `json:"auto_return"`
}

type preferenceResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// CreatePaymentSession creates a preference and returns its id.
func (c *Client) CreatePaymentSession(ctx context.Context, items []models.PreferenceItem, payerEmail string) (string, error) {
	ctx, span := util.StartSpan(ctx, "tokenpay.CreatePaymentSession")
	defer span.End()

	start := time.Now()
	id, err := c.createPreference(ctx, items, payerEmail)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	util.ProviderRequestDuration.WithLabelValues(providerName, outcome).Observe(time.Since(start).Seconds())
	return id, err
}

func (c *Client) createPreference(ctx context.Context, items []models.PreferenceItem, payerEmail string) (string, error) {
	reqBody := preferenceRequest{
		Items: make([]preferenceItem, 0, len(items)),
		Payer: preferencePayer{Email: payerEmail},
		BackURLs: backURLs{
			Success: c.frontendURL + "/orders",
			Failure: c.frontendURL + "/place-order",
			Pending: c.frontendURL + "/orders",
		},
		AutoReturn: "approved",
	}
	for _, item := range items {
		reqBody.Items = append(reqBody.Items, preferenceItem{
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitPrice:  item.Price,
			CurrencyID: c.currency,
		})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/checkout/preferences", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call payment provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			msg = errResp.Message
		}
		c.logger.Warn("Preference rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return "", &provider.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Message: msg}
	}

	var prefResp preferenceResponse
	if err := json.Unmarshal(body, &prefResp); err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrMalformedResponse, err)
	}
	if prefResp.ID == "" {
		return "", fmt.Errorf("%w: missing preference id", provider.ErrMalformedResponse)
	}
	return prefResp.ID, nil
}
