package redisx

import "time"

const (
	// Idempotent checkout: idem:checkout:{user_id}:{key} -> {"order_id": "...", "total_cents": ...}
	KeyIdemCheckout = "idem:checkout:%d:%s"

	// Cache status order: order_status:{order_id} -> hash {status, user_id, updated_at}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Distributed lock: lock:{name} -> random token
	KeyLock = "lock:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
