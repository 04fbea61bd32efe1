package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Product represents a perfume in the catalog
type Product struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Price       int64          `db:"price" json:"price"`
	Category    string         `db:"category" json:"category"`
	Sizes       pq.StringArray `db:"sizes" json:"sizes"`
	Bestseller  bool           `db:"bestseller" json:"bestseller"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// Cart maps product id -> size -> quantity. A missing entry or a zero
// quantity means the variant is not in the cart.
type Cart map[string]map[string]int

// Clone returns a deep copy of the cart.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for productID, sizes := range c {
		inner := make(map[string]int, len(sizes))
		for size, qty := range sizes {
			inner[size] = qty
		}
		out[productID] = inner
	}
	return out
}

// Set stores a quantity for a product variant, removing the entry when the
// quantity is not positive.
func (c Cart) Set(productID, size string, quantity int) {
	if quantity <= 0 {
		if sizes, ok := c[productID]; ok {
			delete(sizes, size)
			if len(sizes) == 0 {
				delete(c, productID)
			}
		}
		return
	}
	if c[productID] == nil {
		c[productID] = make(map[string]int)
	}
	c[productID][size] = quantity
}

// Count returns the total number of units in the cart.
func (c Cart) Count() int {
	total := 0
	for _, sizes := range c {
		for _, qty := range sizes {
			if qty > 0 {
				total += qty
			}
		}
	}
	return total
}

// LineItem is a priced snapshot of one product variant taken at checkout
type LineItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// LineItems is stored as a JSON column
type LineItems []LineItem

func (li LineItems) Value() (driver.Value, error) {
	return json.Marshal(li)
}

func (li *LineItems) Scan(src interface{}) error {
	return scanJSON(src, li)
}

// Payer holds the contact and shipping fields required for every order
type Payer struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Street    string `json:"street" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state" binding:"required"`
	Zipcode   string `json:"zipcode" binding:"required"`
	Country   string `json:"country" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
}

func (p Payer) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *Payer) Scan(src interface{}) error {
	return scanJSON(src, p)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}

// PaymentMethod selects the checkout path
type PaymentMethod string

const (
	MethodCOD        PaymentMethod = "cod"
	MethodStripe     PaymentMethod = "stripe-redirect"
	MethodTokenBased PaymentMethod = "token-based"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCOD, MethodStripe, MethodTokenBased:
		return true
	}
	return false
}

// Order represents a placed order
type Order struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"userId"`
	Items         LineItems      `db:"items" json:"items"`
	Address       Payer          `db:"address" json:"address"`
	Amount        int64          `db:"amount" json:"amount"`
	PaymentMethod string         `db:"payment_method" json:"paymentMethod"`
	Payment       bool           `db:"payment" json:"payment"`
	Status        DeliveryStatus `db:"status" json:"status"`
	Date          time.Time      `db:"date" json:"date"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// Stored payment method labels
const (
	PaymentLabelCOD    = "COD"
	PaymentLabelStripe = "Stripe"
)

// DeliveryStatus is the lifecycle stage of a placed order
type DeliveryStatus string

const (
	StatusPending    DeliveryStatus = "pending"
	StatusProcessing DeliveryStatus = "processing"
	StatusShipped    DeliveryStatus = "shipped"
	StatusInTransit  DeliveryStatus = "in_transit"
	StatusDelivered  DeliveryStatus = "delivered"
	StatusCancelled  DeliveryStatus = "cancelled"
)

// OrderPayload is the creation request sent to the order backend
type OrderPayload struct {
	Address Payer      `json:"address" binding:"required"`
	Items   []LineItem `json:"items" binding:"required,min=1"`
	Amount  int64      `json:"amount"`
}

// OrderResult is the order backend's answer to a creation request
type OrderResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	OrderID     string `json:"orderId,omitempty"`
}

// PreferenceItem is the provider-facing view of a line item
type PreferenceItem struct {
	Title    string `json:"title" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Price    int64  `json:"price"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
