package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders persisted, by payment method",
	}, []string{"method"})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order creations",
	}, []string{"reason"})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of redirect payments verified as paid",
	})

	SubmissionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submission_failures_total",
		Help: "Total number of checkout submissions that ended in a notification",
	}, []string{"reason"})

	PreferenceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_preference_requests_total",
		Help: "Payment preference requests by outcome (issued, adopted, discarded, failed)",
	}, []string{"outcome"})

	PreferenceLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_preference_latency_seconds",
		Help:    "Latency of payment preference creation",
		Buckets: prometheus.DefBuckets,
	})

	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_provider_request_duration_seconds",
		Help:    "Latency of outbound payment provider calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "outcome"})

	CheckoutSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "checkout_sessions_active",
		Help: "Number of live checkout sessions",
	})

	DeliveryStatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_status_updates_total",
		Help: "Total number of delivery status changes applied",
	}, []string{"status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
