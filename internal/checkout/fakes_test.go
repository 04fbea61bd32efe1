package checkout

import (
	"context"
	"errors"
	"sync"

	"checkout-service/internal/models"
)

type prefReply struct {
	token string
	err   error
}

type prefCall struct {
	items []models.PreferenceItem
	email string
	reply chan prefReply
}

// blockingCreator hands every call to the test, which decides when and how it returns.
type blockingCreator struct {
	calls chan *prefCall
}

func newBlockingCreator() *blockingCreator {
	return &blockingCreator{calls: make(chan *prefCall, 16)}
}

func (b *blockingCreator) CreatePaymentSession(ctx context.Context, items []models.PreferenceItem, email string) (string, error) {
	call := &prefCall{items: items, email: email, reply: make(chan prefReply, 1)}
	b.calls <- call
	r := <-call.reply
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.token, r.err
}

// stubCreator answers immediately and records the inputs.
type stubCreator struct {
	mu     sync.Mutex
	emails []string
	items  [][]models.PreferenceItem
	err    error
}

func (s *stubCreator) CreatePaymentSession(_ context.Context, items []models.PreferenceItem, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append(s.emails, email)
	s.items = append(s.items, items)
	if s.err != nil {
		return "", s.err
	}
	return "pref-" + email, nil
}

func (s *stubCreator) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.emails)
}

type orderCall struct {
	method  models.PaymentMethod
	payload models.OrderPayload
}

type fakeOrders struct {
	mu     sync.Mutex
	calls  []orderCall
	result *models.OrderResult
	err    error
}

func (f *fakeOrders) CreateOrder(_ context.Context, method models.PaymentMethod, payload models.OrderPayload) (*models.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, orderCall{method: method, payload: payload})
	return f.result, f.err
}

type fakeClearer struct {
	cleared int
	err     error
}

func (f *fakeClearer) ClearCart(context.Context) error {
	f.cleared++
	return f.err
}

type memoryCarts struct {
	mu        sync.Mutex
	carts     map[string]models.Cart
	fail      bool
	clearFail bool
}

func newMemoryCarts() *memoryCarts {
	return &memoryCarts{carts: make(map[string]models.Cart)}
}

func (m *memoryCarts) GetCart(_ context.Context, userID string) (models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[userID]; ok {
		return c.Clone(), nil
	}
	return models.Cart{}, nil
}

func (m *memoryCarts) SaveCart(_ context.Context, userID string, cart models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("redis unavailable")
	}
	m.carts[userID] = cart.Clone()
	return nil
}

func (m *memoryCarts) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearFail {
		return errors.New("redis unavailable")
	}
	delete(m.carts, userID)
	return nil
}

type staticCatalog []models.Product

func (c staticCatalog) GetProducts(context.Context) ([]models.Product, error) {
	return c, nil
}

func testPayer() models.Payer {
	return models.Payer{
		FirstName: "Ana",
		LastName:  "Silva",
		Email:     "ana@example.com",
		Street:    "Rua das Flores 12",
		City:      "Lisbon",
		State:     "Lisboa",
		Zipcode:   "1100-001",
		Country:   "Portugal",
		Phone:     "+351900000000",
	}
}
