package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// CartStore persists a shopper's cart.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (models.Cart, error)
	SaveCart(ctx context.Context, userID string, cart models.Cart) error
	ClearCart(ctx context.Context, userID string) error
}

// Catalog returns the current product list.
type Catalog interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
}

// Session is the state container for one checkout. Every committed mutation
// is followed by a diff-checked recomputation that refreshes the preference
// only when the method, line items or payer email actually changed.
type Session struct {
	ID     string
	UserID string

	carts       CartStore
	methods     *MethodController
	prefs       *PreferenceManager
	coordinator *Coordinator
	inbox       *Inbox
	logger      *zap.Logger

	mu          sync.Mutex
	cart        models.Cart
	catalog     []models.Product
	items       []models.LineItem
	payer       models.Payer
	deliveryFee int64
	trigger     string
	lastActive  time.Time
}

// SessionView is the client-facing state of a session.
type SessionView struct {
	ID            string               `json:"id"`
	Method        models.PaymentMethod `json:"method"`
	Items         []models.LineItem    `json:"items"`
	Subtotal      int64                `json:"subtotal"`
	DeliveryFee   int64                `json:"deliveryFee"`
	Amount        int64                `json:"amount"`
	Payer         models.Payer         `json:"payer"`
	Token         string               `json:"token,omitempty"`
	TokenPending  bool                 `json:"tokenPending"`
	CanSubmit     bool                 `json:"canSubmit"`
	Navigation    *Navigation          `json:"navigation,omitempty"`
	Notifications []Notification       `json:"notifications"`
}

type sessionDeps struct {
	carts            CartStore
	payments         PaymentSessionCreator
	orders           OrderCreator
	deliveryFee      int64
	placeholderEmail string
}

func newSession(ctx context.Context, id, userID string, cart models.Cart, catalog []models.Product, deps sessionDeps) *Session {
	s := &Session{
		ID:          id,
		UserID:      userID,
		carts:       deps.carts,
		methods:     NewMethodController(),
		inbox:       NewInbox(),
		logger:      util.GetLogger().With(zap.String("session_id", id)),
		cart:        cart.Clone(),
		catalog:     catalog,
		deliveryFee: deps.deliveryFee,
		lastActive:  time.Now(),
	}
	s.prefs = NewPreferenceManager(deps.payments, s.inbox, deps.placeholderEmail)
	s.coordinator = NewCoordinator(deps.orders, sessionCart{s}, s.inbox, s.inbox, deps.deliveryFee)

	s.mu.Lock()
	s.items = BuildLineItems(s.cart, s.catalog)
	s.recompute(ctx)
	s.mu.Unlock()
	return s
}

// recompute must be called with s.mu held.
func (s *Session) recompute(ctx context.Context) {
	trigger := fingerprint(s.methods.Method(), s.items, s.payer.Email)
	if trigger == s.trigger {
		return
	}
	s.trigger = trigger
	seq := s.prefs.Refresh(ctx, s.methods.Method(), s.items, s.payer.Email)
	if seq > 0 {
		s.logger.Debug("Preference requested", zap.Uint64("seq", seq))
	}
}

func fingerprint(method models.PaymentMethod, items []models.LineItem, email string) string {
	var b strings.Builder
	b.WriteString(string(method))
	b.WriteByte('|')
	b.WriteString(email)
	for _, item := range items {
		fmt.Fprintf(&b, "|%s:%s:%d:%d", item.ID, item.Size, item.Quantity, item.Price)
	}
	return b.String()
}

// SetPayer replaces the payer/address record.
func (s *Session) SetPayer(ctx context.Context, payer models.Payer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.payer = payer
	s.recompute(ctx)
}

// SelectMethod switches the payment method.
func (s *Session) SelectMethod(ctx context.Context, method models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if _, err := s.methods.Select(method); err != nil {
		return err
	}
	s.recompute(ctx)
	return nil
}

// SetQuantity updates one cart entry, persists the cart and re-snapshots the
// line items against the catalog captured when the session opened.
func (s *Session) SetQuantity(ctx context.Context, productID, size string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	next := s.cart.Clone()
	next.Set(productID, size, quantity)
	if err := s.carts.SaveCart(ctx, s.UserID, next); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	s.cart = next
	s.items = BuildLineItems(s.cart, s.catalog)
	s.recompute(ctx)
	return nil
}

// Submit runs the Order Submission Coordinator against a snapshot of the
// session. The session lock is not held during the backend call. A
// navigation left over from an earlier submission is dropped first, so only
// this attempt's outcome can move the shopper.
func (s *Session) Submit(ctx context.Context) (*Outcome, error) {
	s.mu.Lock()
	s.touch()
	s.inbox.TakeNavigation()
	sub := Submission{
		Method: s.methods.Method(),
		Token:  s.prefs.Token(),
		Payer:  s.payer,
		Items:  append([]models.LineItem(nil), s.items...),
	}
	s.mu.Unlock()

	return s.coordinator.Submit(ctx, sub)
}

// WidgetResult forwards the embedded widget's callback.
func (s *Session) WidgetResult(success bool, message string) {
	s.mu.Lock()
	s.touch()
	s.mu.Unlock()
	s.coordinator.HandleWidgetResult(success, message)
}

// View returns the session state and drains pending notifications and
// navigation.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.prefs.Token()
	notes := s.inbox.Drain()
	if notes == nil {
		notes = []Notification{}
	}
	subtotal := Subtotal(s.items)
	return SessionView{
		ID:            s.ID,
		Method:        s.methods.Method(),
		Items:         append([]models.LineItem{}, s.items...),
		Subtotal:      subtotal,
		DeliveryFee:   s.deliveryFee,
		Amount:        subtotal + s.deliveryFee,
		Payer:         s.payer,
		Token:         token,
		TokenPending:  s.prefs.Pending(),
		CanSubmit:     s.methods.CanSubmit(token),
		Navigation:    s.inbox.TakeNavigation(),
		Notifications: notes,
	}
}

// Token returns the current preference token.
func (s *Session) Token() string {
	return s.prefs.Token()
}

// Wait blocks until in-flight preference requests settle.
func (s *Session) Wait() {
	s.prefs.Wait()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) itemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}

// sessionCart clears both the session's cart and the persisted one.
type sessionCart struct {
	s *Session
}

func (sc sessionCart) ClearCart(ctx context.Context) error {
	s := sc.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.carts.ClearCart(ctx, s.UserID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.cart = models.Cart{}
	s.items = nil
	s.recompute(ctx)
	return nil
}
