// Package projector keeps the Redis order-status cache in step with the
// lifecycle events on Kafka.
package projector

import (
	"context"

	kafkax "github.com/ankurvermaj09-ux/e-commerce/internal/kafka"
	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// StatusWriter only moves a cached status forward; Advance reports false
// when the cache already holds a later one.
type StatusWriter interface {
	Advance(ctx context.Context, ch orders.StatusChange) (bool, error)
}

type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type Service struct {
	Cache StatusWriter
	Dedup Deduper // optional
	Log   *zap.Logger
}

// HandleLifecycleEvent is installed as the consumer handler.
func (s *Service) HandleLifecycleEvent(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		// a poison message would otherwise stall the partition
		s.Log.Error("drop undecodable event", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}

	ch, ok := orders.StatusOf(env)
	if !ok {
		return nil // not ours
	}

	if s.Dedup != nil {
		seen, err := s.Dedup.Seen(ctx, env.EventID)
		if err != nil {
			s.Log.Warn("dedup check failed", zap.String("event_id", env.EventID), zap.Error(err))
		} else if seen {
			return nil
		}
	}

	applied, err := s.Cache.Advance(ctx, ch)
	if err != nil {
		return err
	}

	if s.Dedup != nil {
		if err := s.Dedup.Mark(ctx, env.EventID); err != nil {
			s.Log.Warn("dedup mark failed", zap.String("event_id", env.EventID), zap.Error(err))
		}
	}
	s.Log.Debug("status projected",
		zap.String("order_id", ch.OrderID),
		zap.String("status", string(ch.Status)),
		zap.String("event_type", env.EventType),
		zap.Bool("applied", applied))
	return nil
}
