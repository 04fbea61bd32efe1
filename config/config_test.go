package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DELIVERY_FEE", "")
	t.Setenv("FRONTEND_URL", "")

	cfg := Load()

	assert.Equal(t, int64(10), cfg.Checkout.DeliveryFee)
	assert.Equal(t, "http://localhost:5173", cfg.Checkout.FrontendURL)
	assert.Equal(t, 30*time.Minute, cfg.Checkout.SessionTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DELIVERY_FEE", "25")
	t.Setenv("FRONTEND_URL", "https://shop.example.com/")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("TOKEN_PROVIDER_TIMEOUT_SECONDS", "3")

	cfg := Load()

	assert.Equal(t, int64(25), cfg.Checkout.DeliveryFee)
	assert.Equal(t, "https://shop.example.com", cfg.Checkout.FrontendURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 3*time.Second, cfg.TokenProvider.Timeout)
}
