package postgres

import (
	"context"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type OrderStore struct{ DB *pgxpool.Pool }

// CreateOrder writes the order and all its lines in one transaction.
func (s *OrderStore) CreateOrder(ctx context.Context, userID int64, lines []orders.OrderLine, totalCents int64) (string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderID := uuid.NewString()
	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, total_cents)
		VALUES ($1, $2, $3, $4)`,
		orderID, userID, string(orders.StatusPending), totalCents); err != nil {
		return "", errors.Wrap(err, "insert order")
	}

	for i, l := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, line_no, product_id, name, price_cents, qty, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			orderID, i, l.ProductID, l.Name, l.PriceCents, l.Qty, l.Image); err != nil {
			return "", errors.Wrap(err, "insert order item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", errors.Wrap(err, "commit")
	}
	return orderID, nil
}

func (s *OrderStore) GetOrder(ctx context.Context, orderID string) (orders.Order, error) {
	var (
		o      orders.Order
		status string
	)
	err := s.DB.QueryRow(ctx, `
		SELECT id, user_id, status, total_cents, created_at, updated_at
		FROM orders WHERE id = $1`, orderID).
		Scan(&o.ID, &o.UserID, &status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Order{}, orders.ErrNotFound
	}
	if err != nil {
		return orders.Order{}, errors.Wrap(err, "get order")
	}
	o.Status = orders.Status(status)

	lines, err := s.linesOf(ctx, []string{o.ID})
	if err != nil {
		return orders.Order{}, err
	}
	o.Lines = lines[o.ID]
	return o, nil
}

func (s *OrderStore) ListOrders(ctx context.Context, userID int64) ([]orders.Order, error) {
	return s.list(ctx, `
		SELECT id, user_id, status, total_cents, created_at, updated_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC, id`, userID)
}

func (s *OrderStore) ListAllOrders(ctx context.Context) ([]orders.Order, error) {
	return s.list(ctx, `
		SELECT id, user_id, status, total_cents, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC, id`)
}

func (s *OrderStore) list(ctx context.Context, query string, args ...any) ([]orders.Order, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	out := []orders.Order{}
	var ids []string
	for rows.Next() {
		var (
			o      orders.Order
			status string
		)
		if err := rows.Scan(&o.ID, &o.UserID, &status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		o.Status = orders.Status(status)
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read orders")
	}
	if len(ids) == 0 {
		return out, nil
	}

	lines, err := s.linesOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, nil
}

// linesOf loads the lines of the given orders in one query, keyed by order id.
func (s *OrderStore) linesOf(ctx context.Context, orderIDs []string) (map[string][]orders.OrderLine, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT order_id, product_id, name, price_cents, qty, image
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, line_no`, orderIDs)
	if err != nil {
		return nil, errors.Wrap(err, "query order items")
	}
	defer rows.Close()

	out := make(map[string][]orders.OrderLine, len(orderIDs))
	for rows.Next() {
		var (
			id string
			l  orders.OrderLine
		)
		if err := rows.Scan(&id, &l.ProductID, &l.Name, &l.PriceCents, &l.Qty, &l.Image); err != nil {
			return nil, errors.Wrap(err, "scan order item")
		}
		out[id] = append(out[id], l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read order items")
	}
	return out, nil
}

// SetStatus only updates a row still in from. Zero rows means either the
// order is gone or someone else moved it first.
func (s *OrderStore) SetStatus(ctx context.Context, orderID string, from, to orders.Status) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`, orderID, string(from), string(to))
	if err != nil {
		return errors.Wrap(err, "set status")
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return errors.Wrap(err, "check order")
	}
	if !exists {
		return orders.ErrNotFound
	}
	return orders.ErrInvalidTransition
}
