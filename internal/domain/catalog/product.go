package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for sale at the register.
//
// StockQuantity is owned by the inventory ledger: every mutation goes through
// an inventory transaction, and reads here may lag a concurrent checkout.
type Product struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	StockQuantity int
	MinStockLevel int
	Unit          string
}

// LowStock reports whether the product is at or below its minimum stock level.
func (p Product) LowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	ListLowStock(ctx context.Context) ([]Product, error)
}
