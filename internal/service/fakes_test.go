package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"checkout-service/internal/models"
)

type memoryStore struct {
	mu        sync.Mutex
	orders    map[string]*models.Order
	processed map[string]bool
	createErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{orders: map[string]*models.Order{}, processed: map[string]bool{}}
}

func (m *memoryStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	order.Date = time.Now()
	o := *order
	m.orders[order.ID] = &o
	return nil
}

func (m *memoryStore) GetOrderByID(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}
	c := *o
	return &c, nil
}

func (m *memoryStore) GetOrdersByUserID(_ context.Context, userID string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memoryStore) ListOrders(_ context.Context, limit, offset int) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		out = append(out, *o)
	}
	if offset >= len(out) {
		return []models.Order{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) MarkOrderPaid(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Payment = true
	return nil
}

func (m *memoryStore) DeleteOrder(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *memoryStore) UpdateOrderStatus(_ context.Context, id string, from, to models.DeliveryStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return ErrOrderNotFound
	}
	o.Status = to
	return nil
}

func (m *memoryStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[eventID], nil
}

func (m *memoryStore) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[eventID] = true
	return nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type recordingPublisher struct {
	mu      sync.Mutex
	placed  []*models.OrderPlacedEvent
	paid    []*models.OrderPaidEvent
	changed []*models.DeliveryStatusChangedEvent
	err     error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, e *models.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, e)
	return p.err
}

func (p *recordingPublisher) PublishOrderPaid(_ context.Context, e *models.OrderPaidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paid = append(p.paid, e)
	return p.err
}

func (p *recordingPublisher) PublishDeliveryStatusChanged(_ context.Context, e *models.DeliveryStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, e)
	return p.err
}

type fakeCarts struct {
	cleared []string
}

func (f *fakeCarts) ClearCart(_ context.Context, userID string) error {
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeRedirects struct {
	url      string
	err      error
	orderIDs []string
}

func (f *fakeRedirects) CreateRedirect(_ context.Context, orderID string, _ []models.LineItem, _ int64) (string, error) {
	f.orderIDs = append(f.orderIDs, orderID)
	return f.url, f.err
}

type fakeLocks struct {
	held map[string]bool
}

func newFakeLocks() *fakeLocks {
	return &fakeLocks{held: map[string]bool{}}
}

func (f *fakeLocks) AcquireLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeLocks) ReleaseLock(_ context.Context, key string) error {
	delete(f.held, key)
	return nil
}

var errStripeDown = errors.New("stripe rejected request (status 402): card declined")

func testPayload() models.OrderPayload {
	return models.OrderPayload{
		Address: models.Payer{
			FirstName: "Ana", LastName: "Silva", Email: "ana@example.com",
			Street: "Rua das Flores 12", City: "Lisbon", State: "Lisboa",
			Zipcode: "1100-001", Country: "Portugal", Phone: "+351900000000",
		},
		Items:  []models.LineItem{{ID: "P1", Name: "Amber Oud", Price: 50, Size: "M", Quantity: 2}},
		Amount: 110,
	}
}
