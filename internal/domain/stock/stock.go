// Package stock holds the guard applied to every quantity that is about to
// leave inventory. The same check runs twice per sale: once against the
// catalog snapshot while the cart is being built (advisory, may be stale) and
// once inside the completion transaction against the live row (authoritative).
package stock

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrOutOfStock is returned when a product with zero on-hand quantity is
// added to a cart.
var ErrOutOfStock = errors.New("product is out of stock")

// InsufficientStockError indicates a requested quantity exceeds the on-hand
// quantity. The requested amount is never clamped down; the caller decides
// how to recover.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Check validates a requested outbound quantity against the available
// quantity. A zero available quantity fails with ErrOutOfStock; a partial
// shortfall fails with InsufficientStockError.
func Check(productID string, requested, available int) error {
	if available <= 0 {
		return ErrOutOfStock
	}
	if requested > available {
		return &InsufficientStockError{
			ProductID: productID,
			Requested: requested,
			Available: available,
		}
	}
	return nil
}
