package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"checkout-service/config"
	"checkout-service/internal/api"
	"checkout-service/internal/broker"
	"checkout-service/internal/checkout"
	"checkout-service/internal/provider/stripepay"
	"checkout-service/internal/provider/tokenpay"
	"checkout-service/internal/redisclient"
	"checkout-service/internal/service"
	"checkout-service/internal/store"
	"checkout-service/internal/util"
	"checkout-service/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting checkout service")

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint, cfg.Server.Env)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Migrate(context.Background()); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	orderProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer orderProducer.Close()
	deliveryProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicDelivery)
	defer deliveryProducer.Close()
	logger.Info("Kafka producers initialized")

	eventPublisher := broker.NewEventPublisher(orderProducer, deliveryProducer)

	if cfg.Stripe.SecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY is not set, Stripe orders will be rejected")
	}
	stripeClient := stripepay.NewClient(cfg.Stripe.SecretKey, cfg.Checkout.Currency, cfg.Checkout.FrontendURL)
	tokenClient := tokenpay.NewClient(
		cfg.TokenProvider.BaseURL,
		cfg.TokenProvider.AccessToken,
		cfg.Checkout.Currency,
		cfg.Checkout.FrontendURL,
		cfg.TokenProvider.Timeout,
	)

	catalogService := service.NewCatalogService(db, redisClient, cfg.Redis.CatalogTTL)
	paymentService := service.NewPaymentService(tokenClient)
	orderService := service.NewOrderService(db, redisClient, stripeClient, redisClient, eventPublisher, cfg.Checkout.DeliveryFee)
	deliveryService := service.NewDeliveryService(db, eventPublisher)

	sessions := checkout.NewRegistry(redisClient, catalogService, paymentService, checkout.RegistryConfig{
		DeliveryFee:      cfg.Checkout.DeliveryFee,
		PlaceholderEmail: cfg.Checkout.PlaceholderEmail,
		TTL:              cfg.Checkout.SessionTTL,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var background sync.WaitGroup
	background.Add(1)
	go func() {
		defer background.Done()
		sessions.Run(workerCtx, time.Minute)
	}()

	var deliveryWorker *worker.DeliveryStatusWorker
	if cfg.Kafka.DeliveryWorker {
		deliveryConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicDelivery, cfg.Kafka.ConsumerGroup)
		deliveryWorker = worker.NewDeliveryStatusWorker(deliveryConsumer, deliveryService)
		background.Add(1)
		go func() {
			defer background.Done()
			if err := deliveryWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Delivery status worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Deps{
		Orders:     orderService,
		Delivery:   deliveryService,
		Payments:   paymentService,
		Carts:      redisClient,
		Catalog:    catalogService,
		Auth:       redisClient,
		Sessions:   sessions,
		AdminToken: cfg.Auth.AdminToken,
		Readiness: map[string]api.Pinger{
			"postgres": db,
			"redis":    redisClient,
		},
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	var metricsSrv *http.Server
	if port := cfg.Observ.PrometheusPort; port != "" && port != cfg.Server.Port {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: fmt.Sprintf(":%s", port), Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	workerCancel()
	if deliveryWorker != nil {
		if err := deliveryWorker.Stop(); err != nil {
			logger.Warn("Failed to stop delivery worker", zap.Error(err))
		}
	}
	background.Wait()
	sessions.Wait()

	logger.Info("Server exited")
}
