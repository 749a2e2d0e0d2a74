package fulfillment

import (
	"context"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Checkout turns the user's cart into a pending order.
//
// Lines are reserved in cart order. The first line that cannot be reserved
// stops the run and every line reserved before it is released again, so a
// failed checkout leaves stock, orders and the cart as they were.
func (s *Service) Checkout(ctx context.Context, userID int64) (orders.Receipt, error) {
	return s.CheckoutOnce(ctx, userID, "")
}

// CheckoutOnce is Checkout guarded by an idempotency key: a retry carrying
// the same key gets the first receipt back instead of a second order.
// An empty key disables the guard.
func (s *Service) CheckoutOnce(ctx context.Context, userID int64, key string) (_ orders.Receipt, err error) {
	ctx, span := s.tracer.Start(ctx, "fulfillment.Checkout",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer func() { endSpan(span, err) }()

	log := s.log.With(zap.Int64("user_id", userID))

	unlock, err := s.locker.Lock(ctx, checkoutLockKey(userID))
	if err != nil {
		return orders.Receipt{}, s.internal("lock checkout", err, zap.Int64("user_id", userID))
	}
	defer unlock()

	if key != "" && s.idem != nil {
		r, found, err := s.idem.Lookup(ctx, userID, key)
		switch {
		case err != nil:
			log.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
		case found:
			log.Info("checkout replayed", zap.String("key", key), zap.String("order_id", r.OrderID))
			return r, nil
		}
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return orders.Receipt{}, s.internal("get cart", err, zap.Int64("user_id", userID))
	}
	if len(cart) == 0 {
		return orders.Receipt{}, orders.ErrEmptyCart
	}

	comp := newCompensator(log)
	lines, total, err := s.reserve(ctx, comp, cart)
	if err != nil {
		return orders.Receipt{}, err
	}
	span.SetAttributes(attribute.Int("order.lines", len(lines)), attribute.Int64("order.total_cents", total))

	// The order is written before the cart is cleared: a crash in between
	// leaves a stale cart next to a real order, never a purchase without one.
	orderID, err := s.store.CreateOrder(ctx, userID, lines, total)
	if err != nil {
		err = multierr.Append(err, comp.unwind(ctx))
		return orders.Receipt{}, s.internal("create order", err, zap.Int64("user_id", userID))
	}
	comp.commit()

	log = log.With(zap.String("order_id", orderID))
	if err := s.carts.Clear(ctx, userID); err != nil {
		log.Error("order placed but cart not cleared", zap.Error(err))
	}

	receipt := orders.Receipt{OrderID: orderID, TotalCents: total}
	if key != "" && s.idem != nil {
		if err := s.idem.Remember(ctx, userID, key, receipt); err != nil {
			log.Warn("idempotency remember failed", zap.String("key", key), zap.Error(err))
		}
	}

	s.publish(ctx, orders.EventOrderPlaced, orderID, orders.OrderPlacedPayload{
		OrderID:    orderID,
		UserID:     userID,
		Lines:      lines,
		TotalCents: total,
		Status:     orders.StatusPending,
	})
	log.Info("checkout completed", zap.Int64("total_cents", total), zap.Int("lines", len(lines)))
	return receipt, nil
}

// reserve takes stock for every cart line. On failure it has already
// released whatever it took.
func (s *Service) reserve(ctx context.Context, comp *compensator, cart []orders.CartLine) ([]orders.OrderLine, int64, error) {
	lines := make([]orders.OrderLine, 0, len(cart))
	var total int64

	for _, cl := range cart {
		cl := cl
		fields := []zap.Field{zap.Int64("product_id", cl.ProductID), zap.Int("qty", cl.Qty)}

		if err := s.ledger.Reserve(ctx, cl.ProductID, cl.Qty); err != nil {
			undone := comp.len()
			cerr := comp.unwind(ctx)
			if errors.Is(err, orders.ErrInsufficientStock) {
				comp.log.Warn("reservation rejected",
					append(fields, zap.String("name", cl.Name), zap.Int("released_lines", undone))...)
				if cerr != nil {
					return nil, 0, s.internal("compensate reservation", cerr, fields...)
				}
				return nil, 0, &orders.InsufficientStockError{ProductID: cl.ProductID, Name: cl.Name}
			}
			return nil, 0, s.internal("reserve stock", multierr.Append(err, cerr), fields...)
		}

		comp.record(func(ctx context.Context) error {
			return s.ledger.Release(ctx, cl.ProductID, cl.Qty)
		}, fields...)

		line := cl.Snapshot()
		lines = append(lines, line)
		total += line.Subtotal()
	}
	return lines, total, nil
}
