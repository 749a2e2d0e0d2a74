package postgres

import (
	"context"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// StockLedger keeps available quantity in products.stock.
type StockLedger struct{ DB *pgxpool.Pool }

// Reserve is a single conditional UPDATE: the row is only touched when it
// still holds enough stock, so concurrent callers in any process can never
// drive it below zero.
func (l *StockLedger) Reserve(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return orders.ErrInvalidQuantity
	}
	ct, err := l.DB.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return errors.Wrapf(err, "reserve product %d", productID)
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrInsufficientStock
	}
	return nil
}

// Release adds qty back. A product deleted since the reservation matches no
// row, which is fine.
func (l *StockLedger) Release(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return nil
	}
	if _, err := l.DB.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1`, productID, qty); err != nil {
		return errors.Wrapf(err, "release product %d", productID)
	}
	return nil
}
