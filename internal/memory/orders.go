package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/google/uuid"
)

type Orders struct {
	mu     sync.Mutex
	orders map[string]orders.Order
	ids    []string // creation order
}

func NewOrders() *Orders {
	return &Orders{orders: make(map[string]orders.Order)}
}

func (s *Orders) CreateOrder(_ context.Context, userID int64, lines []orders.OrderLine, totalCents int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	id := uuid.NewString()
	s.orders[id] = orders.Order{
		ID:         id,
		UserID:     userID,
		Lines:      append([]orders.OrderLine(nil), lines...),
		TotalCents: totalCents,
		Status:     orders.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.ids = append(s.ids, id)
	return id, nil
}

func (s *Orders) GetOrder(_ context.Context, orderID string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	o.Lines = append([]orders.OrderLine(nil), o.Lines...)
	return o, nil
}

func (s *Orders) ListOrders(_ context.Context, userID int64) ([]orders.Order, error) {
	return s.list(func(o orders.Order) bool { return o.OwnedBy(userID) }), nil
}

func (s *Orders) ListAllOrders(context.Context) ([]orders.Order, error) {
	return s.list(func(orders.Order) bool { return true }), nil
}

// list returns the matching orders, newest first.
func (s *Orders) list(keep func(orders.Order) bool) []orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []orders.Order{}
	for i := len(s.ids) - 1; i >= 0; i-- {
		o := s.orders[s.ids[i]]
		if !keep(o) {
			continue
		}
		o.Lines = append([]orders.OrderLine(nil), o.Lines...)
		out = append(out, o)
	}
	return out
}

func (s *Orders) SetStatus(_ context.Context, orderID string, from, to orders.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return orders.ErrNotFound
	}
	if o.Status != from {
		return orders.ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	s.orders[orderID] = o
	return nil
}

func (s *Orders) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}
