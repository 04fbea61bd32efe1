package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"checkout-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegistryConfig carries the storefront settings shared by all sessions.
type RegistryConfig struct {
	DeliveryFee      int64
	PlaceholderEmail string
	TTL              time.Duration
}

// Registry owns the live checkout sessions of this process.
type Registry struct {
	carts    CartStore
	catalog  Catalog
	payments PaymentSessionCreator
	cfg      RegistryConfig
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a new session registry
func NewRegistry(carts CartStore, catalog Catalog, payments PaymentSessionCreator, cfg RegistryConfig) *Registry {
	return &Registry{
		carts:    carts,
		catalog:  catalog,
		payments: payments,
		cfg:      cfg,
		logger:   util.GetLogger(),
		sessions: make(map[string]*Session),
	}
}

// Open snapshots the user's cart against the current catalog and starts a
// session whose orders go through the given backend.
func (r *Registry) Open(ctx context.Context, userID string, orders OrderCreator) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "Registry.Open")
	defer span.End()

	cart, err := r.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	catalog, err := r.catalog.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	id := uuid.New().String()
	s := newSession(ctx, id, userID, cart, catalog, sessionDeps{
		carts:            r.carts,
		payments:         r.payments,
		orders:           orders,
		deliveryFee:      r.cfg.DeliveryFee,
		placeholderEmail: r.cfg.PlaceholderEmail,
	})

	itemCount := s.itemCount()

	r.mu.Lock()
	r.sessions[id] = s
	active := len(r.sessions)
	r.mu.Unlock()

	util.CheckoutSessionsActive.Set(float64(active))
	r.logger.Info("Checkout session opened",
		zap.String("session_id", id),
		zap.String("user_id", userID),
		zap.Int("items", itemCount))
	return s, nil
}

// Get returns the session if it exists and belongs to the user.
func (r *Registry) Get(id, userID string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || s.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Sweep drops sessions idle for longer than the TTL and returns how many.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.idleSince()) > r.cfg.TTL {
			delete(r.sessions, id)
			removed++
		}
	}
	util.CheckoutSessionsActive.Set(float64(len(r.sessions)))
	if removed > 0 {
		r.logger.Info("Expired checkout sessions swept", zap.Int("count", removed))
	}
	return removed
}

// Run sweeps periodically until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// Wait blocks until every session's in-flight preference requests settle.
func (r *Registry) Wait() {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()
	for _, s := range sessions {
		s.Wait()
	}
}
