package fulfillment

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// undoFunc reverts one committed step.
type undoFunc func(ctx context.Context) error

type step struct {
	fields []zap.Field
	undo   undoFunc
}

// compensator records committed steps so they can be reverted newest first
// when a later step fails.
type compensator struct {
	log   *zap.Logger
	steps []step
}

func newCompensator(log *zap.Logger) *compensator {
	return &compensator{log: log}
}

func (c *compensator) record(undo undoFunc, fields ...zap.Field) {
	c.steps = append(c.steps, step{fields: fields, undo: undo})
}

func (c *compensator) len() int { return len(c.steps) }

// unwind runs every recorded undo. A failing undo does not stop the rest.
// The caller's cancellation is ignored so that a dropped request still
// gives back what it took.
func (c *compensator) unwind(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var errs error
	for i := len(c.steps) - 1; i >= 0; i-- {
		s := c.steps[i]
		if err := s.undo(ctx); err != nil {
			c.log.Error("compensation step failed", append(s.fields, zap.Error(err))...)
			errs = multierr.Append(errs, err)
			continue
		}
		c.log.Info("compensation step applied", s.fields...)
	}
	c.steps = nil
	return errs
}

// commit forgets the recorded steps; they are now owned by a durable record.
func (c *compensator) commit() { c.steps = nil }
