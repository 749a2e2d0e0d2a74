package fulfillment

import (
	"context"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/ankurvermaj09-ux/e-commerce/internal/fulfillment"

// Idempotency remembers which order a checkout key produced.
type Idempotency interface {
	Lookup(ctx context.Context, userID int64, key string) (orders.Receipt, bool, error)
	Remember(ctx context.Context, userID int64, key string, r orders.Receipt) error
}

type Deps struct {
	Ledger orders.StockLedger
	Carts  orders.CartStore
	Orders orders.OrderStore

	Locker      Locker                // defaults to an in-process KeyedMutex
	Events      orders.EventPublisher // optional
	Idempotency Idempotency           // optional
	Logger      *zap.Logger
	ServiceName string
}

// Service reserves stock at checkout and drives the order lifecycle.
type Service struct {
	ledger orders.StockLedger
	carts  orders.CartStore
	store  orders.OrderStore
	locker Locker
	events orders.EventPublisher
	idem   Idempotency
	log    *zap.Logger
	tracer trace.Tracer
	name   string
}

func NewService(d Deps) *Service {
	s := &Service{
		ledger: d.Ledger,
		carts:  d.Carts,
		store:  d.Orders,
		locker: d.Locker,
		events: d.Events,
		idem:   d.Idempotency,
		log:    d.Logger,
		tracer: otel.Tracer(tracerName),
		name:   d.ServiceName,
	}
	if s.locker == nil {
		s.locker = NewKeyedMutex()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.name == "" {
		s.name = "order-fulfillment"
	}
	return s
}

// GetOrder returns the order if userID owns it. Other users get ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, userID int64, orderID string) (orders.Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if isDomain(err) {
			return orders.Order{}, err
		}
		return orders.Order{}, s.internal("get order", err, zap.String("order_id", orderID))
	}
	if !o.OwnedBy(userID) {
		return orders.Order{}, orders.ErrNotFound
	}
	return o, nil
}

// ListOrders returns the user's order history, newest first.
func (s *Service) ListOrders(ctx context.Context, userID int64) ([]orders.Order, error) {
	list, err := s.store.ListOrders(ctx, userID)
	if err != nil {
		return nil, s.internal("list orders", err, zap.Int64("user_id", userID))
	}
	return list, nil
}

// ListAllOrders returns every order, newest first. Callers are expected to
// have checked the admin role already.
func (s *Service) ListAllOrders(ctx context.Context) ([]orders.Order, error) {
	list, err := s.store.ListAllOrders(ctx)
	if err != nil {
		return nil, s.internal("list all orders", err)
	}
	return list, nil
}

func (s *Service) internal(op string, err error, fields ...zap.Field) error {
	ie := &orders.InternalError{Op: op, Err: err}
	s.log.Error("internal failure", append(fields, zap.Error(ie.Detail()))...)
	return ie
}

func (s *Service) publish(ctx context.Context, eventType, orderID string, payload any) {
	if s.events == nil {
		return
	}
	env, err := orders.NewEnvelope(eventType, s.name, orderID, payload)
	if err != nil {
		s.log.Error("encode event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		env.TraceID = sc.TraceID().String()
	}
	if err := s.events.PublishEvent(ctx, env); err != nil {
		s.log.Warn("publish event",
			zap.String("event_type", eventType),
			zap.String("order_id", orderID),
			zap.Error(err))
	}
}

func isDomain(err error) bool {
	for _, target := range []error{
		orders.ErrEmptyCart,
		orders.ErrInsufficientStock,
		orders.ErrNotOwner,
		orders.ErrInvalidTransition,
		orders.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
