package api

import (
	"context"
	"net/http"
	"time"

	"checkout-service/internal/checkout"
	"checkout-service/internal/delivery"
	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// OrderAPI is the order gateway behind the storefront
type OrderAPI interface {
	PlaceCOD(ctx context.Context, userID string, payload models.OrderPayload) (*models.OrderResult, error)
	PlaceStripe(ctx context.Context, userID string, payload models.OrderPayload) (*models.OrderResult, error)
	VerifyStripe(ctx context.Context, userID, orderID string, success bool) (*models.OrderResult, error)
	ListUserOrders(ctx context.Context, userID string) ([]models.Order, error)
	Tracking(ctx context.Context, userID, orderID string) (*delivery.Tracking, error)
	GatewayFor(userID string) checkout.OrderCreator
}

// AdminAPI is the administrative side of order delivery
type AdminAPI interface {
	ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, to models.DeliveryStatus) (*models.Order, error)
}

// PreferenceAPI issues payment sessions for the embedded widget
type PreferenceAPI interface {
	CreatePaymentSession(ctx context.Context, items []models.PreferenceItem, payerEmail string) (string, error)
}

// CartAPI reads and edits persisted carts
type CartAPI interface {
	GetCart(ctx context.Context, userID string) (models.Cart, error)
	SetCartItem(ctx context.Context, userID, productID, size string, quantity int) error
}

// CatalogAPI serves the product catalog
type CatalogAPI interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	Invalidate(ctx context.Context) error
}

// TokenResolver maps an auth token to a user id
type TokenResolver interface {
	UserForToken(ctx context.Context, token string) (string, error)
}

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP layer
type Deps struct {
	Orders     OrderAPI
	Delivery   AdminAPI
	Payments   PreferenceAPI
	Carts      CartAPI
	Catalog    CatalogAPI
	Auth       TokenResolver
	Sessions   *checkout.Registry
	AdminToken string
	Readiness  map[string]Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	Deps
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Deps) *Handler {
	return &Handler{
		Deps:   deps,
		logger: util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(util.ServiceName))
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.POST("/payments/preference", h.createPreference)
	}

	user := v1.Group("")
	user.Use(h.authMiddleware())
	{
		user.GET("/cart", h.getCart)
		user.PUT("/cart", h.updateCart)

		user.GET("/orders", h.listUserOrders)
		user.POST("/orders/cod", h.placeCOD)
		user.POST("/orders/stripe", h.placeStripe)
		user.POST("/orders/stripe/verify", h.verifyStripe)
		user.GET("/orders/:id/tracking", h.trackOrder)

		sessions := user.Group("/checkout/sessions")
		sessions.POST("", h.openSession)
		sessions.GET("/:id", h.getSession)
		sessions.PUT("/:id/payer", h.setPayer)
		sessions.PUT("/:id/method", h.selectMethod)
		sessions.PUT("/:id/cart", h.setSessionQuantity)
		sessions.POST("/:id/submit", h.submitSession)
		sessions.POST("/:id/widget-result", h.widgetResult)
	}

	admin := v1.Group("/admin")
	admin.Use(h.adminMiddleware())
	{
		admin.GET("/orders", h.adminListOrders)
		admin.PATCH("/orders/:id/status", h.adminUpdateStatus)
		admin.POST("/catalog/invalidate", h.adminInvalidateCatalog)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every backing service
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failing := gin.H{}
	for name, p := range h.Readiness {
		if err := p.Ping(ctx); err != nil {
			failing[name] = err.Error()
		}
	}

	if len(failing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"failing": failing,
			"time":    time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.Catalog.GetProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}
