package orders

import "context"

// StockLedger is the only writer of available quantity.
type StockLedger interface {
	// Reserve takes qty units of the product if at least qty are available.
	// The check and the decrement happen as one step in the store.
	// Returns ErrInsufficientStock otherwise.
	Reserve(ctx context.Context, productID int64, qty int) error
	// Release gives qty units back. Unknown products are ignored.
	Release(ctx context.Context, productID int64, qty int) error
}

type CartStore interface {
	GetCart(ctx context.Context, userID int64) ([]CartLine, error)
	Clear(ctx context.Context, userID int64) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, userID int64, lines []OrderLine, totalCents int64) (string, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	// ListOrders returns the user's orders, newest first.
	ListOrders(ctx context.Context, userID int64) ([]Order, error)
	// ListAllOrders returns every order, newest first.
	ListAllOrders(ctx context.Context) ([]Order, error)
	// SetStatus moves the order from -> to, failing with ErrInvalidTransition
	// when the stored status is no longer from.
	SetStatus(ctx context.Context, orderID string, from, to Status) error
}

// EventPublisher ships lifecycle events downstream. Delivery is best effort.
type EventPublisher interface {
	PublishEvent(ctx context.Context, env Envelope) error
}
