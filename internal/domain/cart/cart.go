// Package cart implements the in-progress sale: an ordered list of line
// items built from catalog products before checkout.
package cart

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huanvu/retailpos/internal/domain/catalog"
	"github.com/huanvu/retailpos/internal/domain/stock"
)

// ErrInvalidQuantity is returned when a line quantity is not positive.
var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// Item is a single cart line. Its identity is the cart-local CartItemID, not
// the product ID: the same product rung up twice produces two independent
// lines. Price and name are snapshots taken at add time.
type Item struct {
	CartItemID string
	ProductID  string
	Name       string
	UnitPrice  decimal.Decimal
	Unit       string
	Quantity   int
	LineTotal  decimal.Decimal
}

// Cart is a single-session, single-owner value object. It carries no hidden
// package state; callers hold the reference and mutate it synchronously.
type Cart struct {
	items []Item
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Restore builds a cart from existing lines, keeping their snapshots as-is.
// Used when a pending order is reopened for editing.
func Restore(items []Item) *Cart {
	c := &Cart{items: make([]Item, len(items))}
	copy(c.items, items)
	return c
}

// AddItem appends a new line for the given product. It never merges with an
// existing line for the same product. The stock check here is advisory: the
// authoritative check happens inside the completion transaction.
func (c *Cart) AddItem(p catalog.Product, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if err := stock.Check(p.ID, quantity, p.StockQuantity); err != nil {
		return nil, err
	}

	item := Item{
		CartItemID: uuid.New().String(),
		ProductID:  p.ID,
		Name:       p.Name,
		UnitPrice:  p.Price,
		Unit:       p.Unit,
		Quantity:   quantity,
		LineTotal:  p.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
	c.items = append(c.items, item)
	return &item, nil
}

// UpdateQuantity sets a new quantity for an existing line, validated against
// the product's current stock. A non-positive quantity removes the line.
// Unknown cart item IDs are ignored, matching RemoveItem.
func (c *Cart) UpdateQuantity(cartItemID string, quantity int, p catalog.Product) error {
	if quantity <= 0 {
		c.RemoveItem(cartItemID)
		return nil
	}
	if err := stock.Check(p.ID, quantity, p.StockQuantity); err != nil {
		return err
	}

	for i := range c.items {
		if c.items[i].CartItemID == cartItemID {
			c.items[i].Quantity = quantity
			c.items[i].LineTotal = c.items[i].UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
			return nil
		}
	}
	return nil
}

// RemoveItem deletes the line with the given cart item ID. Removing an
// unknown ID is a no-op.
func (c *Cart) RemoveItem(cartItemID string) {
	for i := range c.items {
		if c.items[i].CartItemID == cartItemID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.items = nil
}

// Subtotal returns the sum of all line totals.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.items {
		sum = sum.Add(item.LineTotal)
	}
	return sum
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of lines in the cart.
func (c *Cart) Len() int {
	return len(c.items)
}
