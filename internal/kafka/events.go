package kafka

import (
	"context"
	"strconv"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

// EventWriter publishes lifecycle envelopes keyed by order id.
type EventWriter struct{ Producer *Producer }

func (w EventWriter) PublishEvent(ctx context.Context, env orders.Envelope) error {
	b, err := Marshal(env)
	if err != nil {
		return err
	}
	return w.Producer.Publish(ctx, orders.PartitionKey(env.CorrelationID), b,
		kafka.Header{Key: HeaderEventType, Value: []byte(env.EventType)},
		kafka.Header{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}
