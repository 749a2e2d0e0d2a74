package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("Exclusive until unlocked", func(t *testing.T) {
		mr, rdb := setup(t)
		l := NewLocker(rdb, time.Second)

		unlock, err := l.Lock(ctx, "checkout:user:1")
		require.NoError(t, err)
		assert.True(t, mr.Exists("lock:checkout:user:1"))

		waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_, err = l.Lock(waitCtx, "checkout:user:1")
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		unlock()
		assert.False(t, mr.Exists("lock:checkout:user:1"))

		unlock2, err := l.Lock(ctx, "checkout:user:1")
		require.NoError(t, err)
		unlock2()
	})

	t.Run("Stale unlock keeps new holder", func(t *testing.T) {
		mr, rdb := setup(t)
		l := NewLocker(rdb, time.Second)

		unlock, err := l.Lock(ctx, "order:a")
		require.NoError(t, err)
		mr.FastForward(2 * time.Second)

		unlock2, err := l.Lock(ctx, "order:a")
		require.NoError(t, err)

		unlock()
		assert.True(t, mr.Exists("lock:order:a"))
		unlock2()
		assert.False(t, mr.Exists("lock:order:a"))
	})
}

func TestStatusCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Miss, hit and expiry", func(t *testing.T) {
		mr, rdb := setup(t)
		c := NewStatusCache(rdb)

		_, found, err := c.Get(ctx, "o-1")
		require.NoError(t, err)
		assert.False(t, found)

		ok, err := c.Advance(ctx, orders.StatusChange{OrderID: "o-1", UserID: 7, Status: orders.StatusShipped})
		require.NoError(t, err)
		assert.True(t, ok)

		got, found, err := c.Get(ctx, "o-1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, orders.StatusChange{OrderID: "o-1", UserID: 7, Status: orders.StatusShipped}, got)

		mr.FastForward(TTLStatusCache + time.Second)
		_, found, err = c.Get(ctx, "o-1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Never moves backward", func(t *testing.T) {
		_, rdb := setup(t)
		c := NewStatusCache(rdb)

		ok, err := c.Advance(ctx, orders.StatusChange{OrderID: "o-1", UserID: 7, Status: orders.StatusCancelled})
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = c.Advance(ctx, orders.StatusChange{OrderID: "o-1", UserID: 7, Status: orders.StatusPending})
		require.NoError(t, err)
		assert.False(t, ok)

		got, _, err := c.Get(ctx, "o-1")
		require.NoError(t, err)
		assert.Equal(t, orders.StatusCancelled, got.Status)
	})

	t.Run("Out of order events converge on the latest", func(t *testing.T) {
		_, rdb := setup(t)
		c := NewStatusCache(rdb)

		for _, st := range []orders.Status{orders.StatusShipped, orders.StatusDelivered, orders.StatusPending, orders.StatusShipped} {
			_, err := c.Advance(ctx, orders.StatusChange{OrderID: "o-2", Status: st})
			require.NoError(t, err)
		}
		got, _, err := c.Get(ctx, "o-2")
		require.NoError(t, err)
		assert.Equal(t, orders.StatusDelivered, got.Status)
	})

	t.Run("Owner filled in later", func(t *testing.T) {
		_, rdb := setup(t)
		c := NewStatusCache(rdb)

		_, err := c.Advance(ctx, orders.StatusChange{OrderID: "o-3", Status: orders.StatusShipped})
		require.NoError(t, err)
		got, _, err := c.Get(ctx, "o-3")
		require.NoError(t, err)
		assert.Zero(t, got.UserID)

		ok, err := c.Advance(ctx, orders.StatusChange{OrderID: "o-3", UserID: 9, Status: orders.StatusPending})
		require.NoError(t, err)
		assert.False(t, ok)
		got, _, err = c.Get(ctx, "o-3")
		require.NoError(t, err)
		assert.Equal(t, orders.StatusChange{OrderID: "o-3", UserID: 9, Status: orders.StatusShipped}, got)
	})
}

func TestIdempotency(t *testing.T) {
	ctx := context.Background()
	_, rdb := setup(t)
	i := NewIdempotency(rdb)

	_, found, err := i.Lookup(ctx, 7, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	want := orders.Receipt{OrderID: "o-9", TotalCents: 1200}
	require.NoError(t, i.Remember(ctx, 7, "k1", want))

	got, found, err := i.Lookup(ctx, 7, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	_, found, err = i.Lookup(ctx, 8, "k1")
	require.NoError(t, err)
	assert.False(t, found, "keys are scoped per user")
}

func TestDedup(t *testing.T) {
	ctx := context.Background()
	mr, rdb := setup(t)
	d := NewDedup(rdb, "projector")

	seen, err := d.Seen(ctx, "ev-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, d.Mark(ctx, "ev-1"))
	assert.True(t, mr.Exists("dedup:projector:ev-1"))

	seen, err = d.Seen(ctx, "ev-1")
	require.NoError(t, err)
	assert.True(t, seen)
}
