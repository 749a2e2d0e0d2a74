package memory

import (
	"context"
	"sync"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
)

type Carts struct {
	mu    sync.Mutex
	carts map[int64][]orders.CartLine
}

func NewCarts() *Carts {
	return &Carts{carts: make(map[int64][]orders.CartLine)}
}

// Add appends a line, or bumps the quantity if the product is already there.
func (c *Carts) Add(userID int64, line orders.CartLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := c.carts[userID]
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i].Qty += line.Qty
			return
		}
	}
	c.carts[userID] = append(lines, line)
}

func (c *Carts) GetCart(_ context.Context, userID int64) ([]orders.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := c.carts[userID]
	out := make([]orders.CartLine, len(lines))
	copy(out, lines)
	return out, nil
}

func (c *Carts) Clear(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.carts, userID)
	return nil
}
