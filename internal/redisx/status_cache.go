package redisx

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// advanceScript writes the status only when it lies ahead of the cached one
// (ARGV[5..] lists the statuses it may follow) or nothing is cached yet.
// A known owner is recorded either way.
var advanceScript = redis.NewScript(`
if ARGV[2] ~= "0" then
	redis.call("HSET", KEYS[1], "user_id", ARGV[2])
end
local cur = redis.call("HGET", KEYS[1], "status")
if cur then
	local ahead = false
	for i = 5, #ARGV do
		if ARGV[i] == cur then
			ahead = true
			break
		end
	end
	if not ahead then
		return 0
	end
end
redis.call("HSET", KEYS[1], "status", ARGV[1], "updated_at", ARGV[3])
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return 1`)

// StatusCache keeps the last known status of an order, and its owner, for
// fast reads. The cached status only moves forward along the lifecycle, so
// late or reordered writers cannot roll it back.
type StatusCache struct{ rdb redis.Cmdable }

func NewStatusCache(rdb redis.Cmdable) *StatusCache { return &StatusCache{rdb: rdb} }

// Get returns the cached entry. UserID is zero when the owner is not known
// yet.
func (c *StatusCache) Get(ctx context.Context, orderID string) (orders.StatusChange, bool, error) {
	h, err := c.rdb.HGetAll(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Result()
	if err != nil {
		return orders.StatusChange{}, false, errors.Wrap(err, "get status cache")
	}
	st, ok := h["status"]
	if !ok {
		return orders.StatusChange{}, false, nil
	}
	e := orders.StatusChange{OrderID: orderID, Status: orders.Status(st)}
	if uid, ok := h["user_id"]; ok {
		if e.UserID, err = strconv.ParseInt(uid, 10, 64); err != nil {
			return orders.StatusChange{}, false, errors.Wrap(err, "decode status cache owner")
		}
	}
	return e, true, nil
}

// Advance records ch unless the cache already holds a later status. It
// reports whether the status was written.
func (c *StatusCache) Advance(ctx context.Context, ch orders.StatusChange) (bool, error) {
	args := []any{
		string(ch.Status),
		ch.UserID,
		time.Now().UTC().Format(time.RFC3339Nano),
		TTLStatusCache.Milliseconds(),
	}
	for _, p := range orders.Predecessors(ch.Status) {
		args = append(args, string(p))
	}
	n, err := advanceScript.Run(ctx, c.rdb, []string{fmt.Sprintf(KeyOrderStatus, ch.OrderID)}, args...).Int()
	if err != nil {
		return false, errors.Wrap(err, "advance status cache")
	}
	return n == 1, nil
}

// Dedup remembers which events a service has already applied.
type Dedup struct {
	rdb     redis.Cmdable
	service string
}

func NewDedup(rdb redis.Cmdable, service string) *Dedup {
	return &Dedup{rdb: rdb, service: service}
}

func (d *Dedup) Seen(ctx context.Context, eventID string) (bool, error) {
	return Exists(ctx, d.rdb, fmt.Sprintf(KeyDedup, d.service, eventID))
}

func (d *Dedup) Mark(ctx context.Context, eventID string) error {
	return d.rdb.Set(ctx, fmt.Sprintf(KeyDedup, d.service, eventID), "1", TTLDedup).Err()
}
