package redisx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Idempotency maps a checkout key to the receipt of the order it created.
type Idempotency struct{ rdb redis.Cmdable }

func NewIdempotency(rdb redis.Cmdable) *Idempotency { return &Idempotency{rdb: rdb} }

func (i *Idempotency) Lookup(ctx context.Context, userID int64, key string) (orders.Receipt, bool, error) {
	s, err := i.rdb.Get(ctx, fmt.Sprintf(KeyIdemCheckout, userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return orders.Receipt{}, false, nil
	}
	if err != nil {
		return orders.Receipt{}, false, errors.Wrap(err, "get idempotency key")
	}
	var r orders.Receipt
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return orders.Receipt{}, false, errors.Wrap(err, "decode receipt")
	}
	return r, true, nil
}

func (i *Idempotency) Remember(ctx context.Context, userID int64, key string, r orders.Receipt) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return i.rdb.Set(ctx, fmt.Sprintf(KeyIdemCheckout, userID, key), b, TTLIdempotency).Err()
}
