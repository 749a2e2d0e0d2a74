package postgres

import (
	"context"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type CartStore struct{ DB *pgxpool.Pool }

// GetCart returns the lines in the order they were first added.
func (c *CartStore) GetCart(ctx context.Context, userID int64) ([]orders.CartLine, error) {
	rows, err := c.DB.Query(ctx, `
		SELECT product_id, name, price_cents, qty, image
		FROM cart_items WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query cart")
	}
	defer rows.Close()

	var out []orders.CartLine
	for rows.Next() {
		var l orders.CartLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.PriceCents, &l.Qty, &l.Image); err != nil {
			return nil, errors.Wrap(err, "scan cart line")
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (c *CartStore) Clear(ctx context.Context, userID int64) error {
	if _, err := c.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}
