// Package memory holds in-process stores used by tests and single-node runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
)

type Ledger struct {
	mu    sync.Mutex
	items map[int64]*orders.StockItem
}

func NewLedger(items ...orders.StockItem) *Ledger {
	l := &Ledger{items: make(map[int64]*orders.StockItem, len(items))}
	for _, it := range items {
		l.Put(it)
	}
	return l
}

func (l *Ledger) Put(it orders.StockItem) {
	l.mu.Lock()
	defer l.mu.Unlock()
	it.UpdatedAt = time.Now().UTC()
	l.items[it.ProductID] = &it
}

func (l *Ledger) Remove(productID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.items, productID)
}

// Available returns the current quantity, or -1 if the product is unknown.
func (l *Ledger) Available(productID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	it, ok := l.items[productID]
	if !ok {
		return -1
	}
	return it.Qty
}

func (l *Ledger) Reserve(_ context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return orders.ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	it, ok := l.items[productID]
	if !ok || it.Qty < qty {
		return orders.ErrInsufficientStock
	}
	it.Qty -= qty
	it.UpdatedAt = time.Now().UTC()
	return nil
}

func (l *Ledger) Release(_ context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	it, ok := l.items[productID]
	if !ok {
		return nil
	}
	it.Qty += qty
	it.UpdatedAt = time.Now().UTC()
	return nil
}
