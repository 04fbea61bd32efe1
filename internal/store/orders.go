package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"checkout-service/internal/models"
)

const orderColumns = "id, user_id, items, address, amount, payment_method, payment, status, date, updated_at"

// CreateOrder persists a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, user_id, items, address, amount, payment_method, payment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING date, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		order.ID, order.UserID, order.Items, order.Address, order.Amount,
		order.PaymentMethod, order.Payment, order.Status,
	).Scan(&order.Date, &order.UpdatedAt)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY date DESC", userID)
	return orders, err
}

// ListOrders retrieves all orders for the admin panel, newest first
func (s *Store) ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders ORDER BY date DESC LIMIT $1 OFFSET $2", limit, offset)
	return orders, err
}

// MarkOrderPaid flags the order as paid
func (s *Store) MarkOrderPaid(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment = TRUE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectOneRow(res, id)
}

// DeleteOrder removes an order
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectOneRow(res, id)
}

// UpdateOrderStatus moves an order from one delivery status to another. The
// update only applies when the stored status still equals from.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, from, to models.DeliveryStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, id, from)
	if err != nil {
		return err
	}
	return expectOneRow(res, id)
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return nil
}
