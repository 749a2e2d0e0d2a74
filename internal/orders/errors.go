package orders

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrNotOwner          = errors.New("not your order")
	ErrInvalidTransition = errors.New("invalid status change")
	ErrNotFound          = errors.New("order not found")
	ErrInternal          = errors.New("an internal error occurred")
)

// InsufficientStockError names the cart line that could not be reserved.
type InsufficientStockError struct {
	ProductID int64
	Name      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item: %s", e.Name)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InternalError hides a storage failure behind ErrInternal's message.
// The cause stays reachable through Unwrap for logging.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string { return ErrInternal.Error() }

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// Detail returns the wrapped failure annotated with the failing operation.
func (e *InternalError) Detail() error { return errors.Wrap(e.Err, e.Op) }
