package fulfillment

import (
	"context"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CancelOrder cancels a pending order on behalf of its owner and gives its
// stock back.
func (s *Service) CancelOrder(ctx context.Context, userID int64, orderID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "fulfillment.CancelOrder", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.String("order.id", orderID),
	))
	defer func() { endSpan(span, err) }()

	return s.withOrder(ctx, orderID, func(o orders.Order) error {
		if !o.OwnedBy(userID) {
			return orders.ErrNotOwner
		}
		if o.Status != orders.StatusPending {
			return orders.ErrInvalidTransition
		}
		return s.transition(ctx, o, orders.StatusCancelled)
	})
}

// UpdateOrderStatus moves an order to status if the transition table allows
// it. Callers are expected to have checked the admin role already.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, status orders.Status) (err error) {
	ctx, span := s.tracer.Start(ctx, "fulfillment.UpdateOrderStatus", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status", string(status)),
	))
	defer func() { endSpan(span, err) }()

	return s.withOrder(ctx, orderID, func(o orders.Order) error {
		if !orders.CanTransition(o.Status, status) {
			return orders.ErrInvalidTransition
		}
		return s.transition(ctx, o, status)
	})
}

// withOrder loads the order under its lock and hands it to fn.
func (s *Service) withOrder(ctx context.Context, orderID string, fn func(orders.Order) error) error {
	unlock, err := s.locker.Lock(ctx, orderLockKey(orderID))
	if err != nil {
		return s.internal("lock order", err, zap.String("order_id", orderID))
	}
	defer unlock()

	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return orders.ErrNotFound
		}
		return s.internal("get order", err, zap.String("order_id", orderID))
	}
	return fn(o)
}

// transition stores the new status, then applies its side effects. The
// status is written first: a lost compare-and-set leaves stock untouched, and
// units released afterwards are never taken back.
func (s *Service) transition(ctx context.Context, o orders.Order, to orders.Status) error {
	log := s.log.With(zap.String("order_id", o.ID), zap.Int64("user_id", o.UserID))

	if err := s.store.SetStatus(ctx, o.ID, o.Status, to); err != nil {
		if errors.Is(err, orders.ErrInvalidTransition) || errors.Is(err, orders.ErrNotFound) {
			return err
		}
		return s.internal("set status", err, zap.String("order_id", o.ID))
	}
	log.Info("order status changed",
		zap.String("from", string(o.Status)),
		zap.String("to", string(to)))

	var restored []orders.ItemQty
	if to.RestoresStock() {
		restored = s.restock(ctx, log, o.Lines)
	}

	if to == orders.StatusCancelled {
		s.publish(ctx, orders.EventOrderCancelled, o.ID, orders.OrderCancelledPayload{
			OrderID:  o.ID,
			UserID:   o.UserID,
			Restored: restored,
		})
		return nil
	}
	s.publish(ctx, orders.EventOrderStatusChanged, o.ID, orders.OrderStatusChangedPayload{
		OrderID: o.ID, UserID: o.UserID, From: o.Status, To: to,
	})
	return nil
}

// restock releases every line of a cancelled order. A failed line does not
// stop the others; it is logged with enough detail to restore it by hand.
// The order stays cancelled either way.
func (s *Service) restock(ctx context.Context, log *zap.Logger, lines []orders.OrderLine) []orders.ItemQty {
	ctx = context.WithoutCancel(ctx)
	restored := make([]orders.ItemQty, 0, len(lines))
	for _, l := range lines {
		if err := s.ledger.Release(ctx, l.ProductID, l.Qty); err != nil {
			log.Error("stock not restored",
				zap.Int64("product_id", l.ProductID),
				zap.Int("qty", l.Qty),
				zap.Error(err))
			continue
		}
		restored = append(restored, orders.ItemQty{ProductID: l.ProductID, Qty: l.Qty})
	}
	return restored
}
