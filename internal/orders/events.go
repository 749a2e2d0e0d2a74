package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderCancelled     = "OrderCancelled"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "order-fulfillment"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // usually order_id
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, producer, orderID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: orderID,
		Payload:       b,
	}, nil
}

// ---- Payloads per event ----

type OrderPlacedPayload struct {
	OrderID    string      `json:"order_id"`
	UserID     int64       `json:"user_id"`
	Lines      []OrderLine `json:"lines"`
	TotalCents int64       `json:"total_cents"`
	Status     Status      `json:"status"`
}

type ItemQty struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type OrderCancelledPayload struct {
	OrderID  string    `json:"order_id"`
	UserID   int64     `json:"user_id"`
	Restored []ItemQty `json:"restored"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	UserID  int64  `json:"user_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

// StatusChange is the status an event leaves its order in.
type StatusChange struct {
	OrderID string
	UserID  int64
	Status  Status
}

// StatusOf extracts the status change carried by a lifecycle event.
func StatusOf(env Envelope) (StatusChange, bool) {
	switch env.EventType {
	case EventOrderPlaced:
		var p OrderPlacedPayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return StatusChange{}, false
		}
		return StatusChange{OrderID: p.OrderID, UserID: p.UserID, Status: p.Status}, true
	case EventOrderCancelled:
		var p OrderCancelledPayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return StatusChange{}, false
		}
		return StatusChange{OrderID: p.OrderID, UserID: p.UserID, Status: StatusCancelled}, true
	case EventOrderStatusChanged:
		var p OrderStatusChangedPayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return StatusChange{}, false
		}
		return StatusChange{OrderID: p.OrderID, UserID: p.UserID, Status: p.To}, true
	}
	return StatusChange{}, false
}
