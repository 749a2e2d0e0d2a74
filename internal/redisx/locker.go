package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries our token, so an
// expired holder cannot free a lock someone else took since.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker is a Redis lease lock shared by every replica.
type Locker struct {
	rdb   redis.Cmdable
	ttl   time.Duration
	retry time.Duration
}

func NewLocker(rdb redis.Cmdable, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{rdb: rdb, ttl: ttl, retry: 25 * time.Millisecond}
}

// Lock blocks until the lease is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, name string) (func(), error) {
	key := fmt.Sprintf(KeyLock, name)
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "acquire %s", key)
		}
		if ok {
			return func() {
				_ = releaseScript.Run(context.Background(), l.rdb, []string{key}, token).Err()
			}, nil
		}

		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
