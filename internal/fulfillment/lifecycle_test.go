package fulfillment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T, e *env, userID int64) string {
	t.Helper()
	e.addToCart(userID, productA, 2)
	r, err := e.svc.Checkout(context.Background(), userID)
	require.NoError(t, err)
	return r.OrderID
}

func status(t *testing.T, e *env, orderID string) orders.Status {
	o, err := e.store.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	return o.Status
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success restores stock", func(t *testing.T) {
		e := setup(t)
		id := placeOrder(t, e, 7)
		require.Equal(t, 0, e.ledger.Available(productA))

		require.NoError(t, e.svc.CancelOrder(ctx, 7, id))
		assert.Equal(t, 2, e.ledger.Available(productA))
		assert.Equal(t, orders.StatusCancelled, status(t, e, id))
		assert.Equal(t, []string{orders.EventOrderPlaced, orders.EventOrderCancelled}, e.events.types())
	})

	t.Run("Second cancel is rejected", func(t *testing.T) {
		e := setup(t)
		id := placeOrder(t, e, 7)

		require.NoError(t, e.svc.CancelOrder(ctx, 7, id))
		assert.ErrorIs(t, e.svc.CancelOrder(ctx, 7, id), orders.ErrInvalidTransition)
		assert.Equal(t, 2, e.ledger.Available(productA), "stock restored exactly once")
	})

	t.Run("Fail on not owner", func(t *testing.T) {
		e := setup(t)
		id := placeOrder(t, e, 7)

		assert.ErrorIs(t, e.svc.CancelOrder(ctx, 8, id), orders.ErrNotOwner)
		assert.Equal(t, 0, e.ledger.Available(productA))
		assert.Equal(t, orders.StatusPending, status(t, e, id))
	})

	t.Run("Fail on shipped order", func(t *testing.T) {
		e := setup(t)
		id := placeOrder(t, e, 7)
		require.NoError(t, e.svc.UpdateOrderStatus(ctx, id, orders.StatusShipped))

		assert.ErrorIs(t, e.svc.CancelOrder(ctx, 7, id), orders.ErrInvalidTransition)
		assert.Equal(t, 0, e.ledger.Available(productA))
	})

	t.Run("Fail on missing order", func(t *testing.T) {
		e := setup(t)
		assert.ErrorIs(t, e.svc.CancelOrder(ctx, 7, "missing"), orders.ErrNotFound)
	})

	t.Run("Product removed since checkout", func(t *testing.T) {
		e := setup(t)
		id := placeOrder(t, e, 7)
		e.ledger.Remove(productA)

		require.NoError(t, e.svc.CancelOrder(ctx, 7, id))
		assert.Equal(t, orders.StatusCancelled, status(t, e, id))
	})

	t.Run("Lost status race leaves stock alone", func(t *testing.T) {
		e := setup(t)
		id := placeOrder(t, e, 7)
		svc := NewService(Deps{Ledger: e.ledger, Carts: e.carts, Orders: racingOrders{e.store}})

		assert.ErrorIs(t, svc.CancelOrder(ctx, 7, id), orders.ErrInvalidTransition)
		assert.Equal(t, 0, e.ledger.Available(productA), "nothing released for a lost race")
		assert.Equal(t, orders.StatusPending, status(t, e, id))
	})

	t.Run("Failed release keeps the order cancelled", func(t *testing.T) {
		e := setup(t)
		e.addToCart(7, productA, 2)
		e.addToCart(7, productC, 3)
		r, err := e.svc.Checkout(ctx, 7)
		require.NoError(t, err)

		ledger := &flakyLedger{StockLedger: e.ledger, failReleaseOn: productA}
		events := &mockPublisher{}
		svc := NewService(Deps{Ledger: ledger, Carts: e.carts, Orders: e.store, Events: events})

		require.NoError(t, svc.CancelOrder(ctx, 7, r.OrderID))
		assert.Equal(t, orders.StatusCancelled, status(t, e, r.OrderID))
		assert.Equal(t, 0, e.ledger.Available(productA))
		assert.Equal(t, 10, e.ledger.Available(productC), "other lines still restored")

		require.Len(t, events.envs, 1)
		var p orders.OrderCancelledPayload
		require.NoError(t, json.Unmarshal(events.envs[0].Payload, &p))
		assert.Equal(t, []orders.ItemQty{{ProductID: productC, Qty: 3}}, p.Restored)
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Forward path", func(t *testing.T) {
		e := setup(t)
		id := placeOrder(t, e, 7)

		require.NoError(t, e.svc.UpdateOrderStatus(ctx, id, orders.StatusShipped))
		require.NoError(t, e.svc.UpdateOrderStatus(ctx, id, orders.StatusDelivered))
		assert.Equal(t, orders.StatusDelivered, status(t, e, id))
		assert.Equal(t, 0, e.ledger.Available(productA), "shipping and delivery keep stock")
		assert.Equal(t, []string{
			orders.EventOrderPlaced,
			orders.EventOrderStatusChanged,
			orders.EventOrderStatusChanged,
		}, e.events.types())
	})

	t.Run("Invalid transitions", func(t *testing.T) {
		cases := []struct {
			name string
			path []orders.Status
			to   orders.Status
		}{
			{"shipped to cancelled", []orders.Status{orders.StatusShipped}, orders.StatusCancelled},
			{"pending to delivered", nil, orders.StatusDelivered},
			{"pending to pending", nil, orders.StatusPending},
			{"delivered is terminal", []orders.Status{orders.StatusShipped, orders.StatusDelivered}, orders.StatusShipped},
			{"cancelled is terminal", []orders.Status{orders.StatusCancelled}, orders.StatusShipped},
			{"unknown status", nil, orders.Status("refunded")},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				e := setup(t)
				id := placeOrder(t, e, 7)
				for _, s := range tc.path {
					require.NoError(t, e.svc.UpdateOrderStatus(ctx, id, s))
				}
				before := status(t, e, id)

				assert.ErrorIs(t, e.svc.UpdateOrderStatus(ctx, id, tc.to), orders.ErrInvalidTransition)
				assert.Equal(t, before, status(t, e, id))
			})
		}
	})

	t.Run("Admin cancel restores stock", func(t *testing.T) {
		e := setup(t)
		id := placeOrder(t, e, 7)

		require.NoError(t, e.svc.UpdateOrderStatus(ctx, id, orders.StatusCancelled))
		assert.Equal(t, 2, e.ledger.Available(productA))
	})

	t.Run("Fail on missing order", func(t *testing.T) {
		e := setup(t)
		assert.ErrorIs(t, e.svc.UpdateOrderStatus(ctx, "missing", orders.StatusShipped), orders.ErrNotFound)
	})
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	mine, err := e.svc.ListOrders(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, mine)

	first := placeOrder(t, e, 7)
	e.addToCart(8, productC, 1)
	_, err = e.svc.Checkout(ctx, 8)
	require.NoError(t, err)
	require.NoError(t, e.svc.CancelOrder(ctx, 7, first))
	second := placeOrder(t, e, 7)

	mine, err = e.svc.ListOrders(ctx, 7)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second, mine[0].ID)
	assert.Equal(t, orders.StatusPending, mine[0].Status)
	assert.Equal(t, first, mine[1].ID)
	assert.Equal(t, orders.StatusCancelled, mine[1].Status)

	all, err := e.svc.ListAllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	svc := NewService(Deps{Ledger: e.ledger, Carts: e.carts, Orders: failingOrders{e.store}})
	_, err = svc.ListOrders(ctx, 7)
	assert.ErrorIs(t, err, orders.ErrInternal)
	_, err = svc.ListAllOrders(ctx)
	assert.ErrorIs(t, err, orders.ErrInternal)
}

func TestGetOrder(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	id := placeOrder(t, e, 7)

	o, err := e.svc.GetOrder(ctx, 7, id)
	require.NoError(t, err)
	assert.Equal(t, id, o.ID)

	_, err = e.svc.GetOrder(ctx, 8, id)
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

// racingOrders behaves as if another request moved the order first.
type racingOrders struct{ orders.OrderStore }

func (racingOrders) SetStatus(context.Context, string, orders.Status, orders.Status) error {
	return orders.ErrInvalidTransition
}
