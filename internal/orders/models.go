package orders

import "time"

type StockItem struct {
	ProductID  int64
	Name       string
	PriceCents int64
	Qty        int
	Image      string
	UpdatedAt  time.Time
}

// CartLine is what the user put in the cart, priced when it was added.
type CartLine struct {
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Qty        int    `json:"qty"`
	Image      string `json:"image"`
}

// OrderLine is the snapshot of a cart line taken at reservation time.
// Later product edits never reach it.
type OrderLine struct {
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Qty        int    `json:"qty"`
	Image      string `json:"image"`
}

func (l CartLine) Snapshot() OrderLine {
	return OrderLine(l)
}

func (l OrderLine) Subtotal() int64 { return l.PriceCents * int64(l.Qty) }

type Order struct {
	ID         string      `json:"id"`
	UserID     int64       `json:"user_id"`
	Lines      []OrderLine `json:"lines"`
	TotalCents int64       `json:"total_cents"`
	Status     Status      `json:"status"` // see status.go
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (o Order) OwnedBy(userID int64) bool { return o.UserID == userID }

// Total sums price*qty over lines.
func Total(lines []OrderLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// Receipt is what a successful checkout hands back to the caller.
type Receipt struct {
	OrderID    string `json:"order_id"`
	TotalCents int64  `json:"total_cents"`
}
