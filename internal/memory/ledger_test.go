package memory

import (
	"context"
	"testing"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestLedgerReserve(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(orders.StockItem{ProductID: 1, Name: "A", Qty: 3})

	require.NoError(t, l.Reserve(ctx, 1, 2))
	assert.Equal(t, 1, l.Available(1))

	assert.ErrorIs(t, l.Reserve(ctx, 1, 2), orders.ErrInsufficientStock)
	assert.Equal(t, 1, l.Available(1), "failed reserve leaves stock alone")

	assert.ErrorIs(t, l.Reserve(ctx, 99, 1), orders.ErrInsufficientStock)
	assert.ErrorIs(t, l.Reserve(ctx, 1, 0), orders.ErrInvalidQuantity)
	assert.ErrorIs(t, l.Reserve(ctx, 1, -1), orders.ErrInvalidQuantity)
}

func TestLedgerRelease(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(orders.StockItem{ProductID: 1, Qty: 0})

	require.NoError(t, l.Release(ctx, 1, 0))
	assert.Equal(t, 0, l.Available(1))

	require.NoError(t, l.Release(ctx, 1, 4))
	assert.Equal(t, 4, l.Available(1))

	l.Remove(1)
	assert.NoError(t, l.Release(ctx, 1, 4), "releasing a removed product is a no-op")
	assert.Equal(t, -1, l.Available(1))
}

func TestLedgerNeverNegativeUnderContention(t *testing.T) {
	ctx := context.Background()
	const stock = 50
	l := NewLedger(orders.StockItem{ProductID: 1, Qty: stock})

	var g errgroup.Group
	results := make([]bool, 200)
	for i := range results {
		i := i
		g.Go(func() error {
			err := l.Reserve(ctx, 1, 1)
			results[i] = err == nil
			if err != nil && !assert.ErrorIs(t, err, orders.ErrInsufficientStock) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	won := 0
	for _, ok := range results {
		if ok {
			won++
		}
	}
	assert.Equal(t, stock, won)
	assert.Equal(t, 0, l.Available(1))

	for i := 0; i < won; i++ {
		g.Go(func() error { return l.Release(ctx, 1, 1) })
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, stock, l.Available(1))
}

func TestCarts(t *testing.T) {
	ctx := context.Background()
	c := NewCarts()

	lines, err := c.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, lines)

	c.Add(1, orders.CartLine{ProductID: 10, Qty: 1})
	c.Add(1, orders.CartLine{ProductID: 11, Qty: 2})
	c.Add(1, orders.CartLine{ProductID: 10, Qty: 1})

	lines, err = c.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(10), lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Qty)

	require.NoError(t, c.Clear(ctx, 1))
	lines, _ = c.GetCart(ctx, 1)
	assert.Empty(t, lines)
}

func TestOrdersSetStatus(t *testing.T) {
	ctx := context.Background()
	s := NewOrders()
	id, err := s.CreateOrder(ctx, 1, []orders.OrderLine{{ProductID: 1, Qty: 1, PriceCents: 10}}, 10)
	require.NoError(t, err)

	o, err := s.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, o.Status)

	require.NoError(t, s.SetStatus(ctx, id, orders.StatusPending, orders.StatusShipped))
	assert.ErrorIs(t, s.SetStatus(ctx, id, orders.StatusPending, orders.StatusCancelled), orders.ErrInvalidTransition)
	assert.ErrorIs(t, s.SetStatus(ctx, "nope", orders.StatusPending, orders.StatusShipped), orders.ErrNotFound)

	_, err = s.GetOrder(ctx, "nope")
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func TestOrdersList(t *testing.T) {
	ctx := context.Background()
	s := NewOrders()

	mine, err := s.ListOrders(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, mine)
	assert.Empty(t, mine)

	first, err := s.CreateOrder(ctx, 1, []orders.OrderLine{{ProductID: 1, Qty: 1, PriceCents: 10}}, 10)
	require.NoError(t, err)
	other, err := s.CreateOrder(ctx, 2, []orders.OrderLine{{ProductID: 2, Qty: 1, PriceCents: 20}}, 20)
	require.NoError(t, err)
	second, err := s.CreateOrder(ctx, 1, []orders.OrderLine{{ProductID: 3, Qty: 2, PriceCents: 5}}, 10)
	require.NoError(t, err)

	mine, err = s.ListOrders(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second, mine[0].ID)
	assert.Equal(t, first, mine[1].ID)

	all, err := s.ListAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{second, other, first}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine[0].Lines[0].Qty = 99
	o, err := s.GetOrder(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 2, o.Lines[0].Qty, "listed orders are copies")
}
