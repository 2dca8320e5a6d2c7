// Package inventory defines the append-only stock movement ledger. The
// ledger is the sole writer of product stock quantities: every change to
// on-hand stock is one immutable transaction row with before/after snapshots.
package inventory

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type marks the direction of a stock movement.
type Type string

const (
	// TypeIn records stock arriving (purchase, return, correction up).
	TypeIn Type = "IN"
	// TypeOut records stock leaving (sale, damage, correction down).
	TypeOut Type = "OUT"
)

// ErrInvalidQuantity is returned when a movement quantity is not positive.
var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// Transaction is one immutable ledger row. StockBefore and StockAfter
// snapshot the product's on-hand quantity around the movement:
// after = before + quantity for IN, before - quantity for OUT.
type Transaction struct {
	ID              string
	ProductID       string
	ProductName     string
	Type            Type
	Quantity        int
	StockBefore     int
	StockAfter      int
	UnitPrice       decimal.Decimal
	TotalValue      decimal.Decimal
	Reason          string
	SupplierName    string
	ReferenceNumber string
	CreatedAt       time.Time
}

// Filter narrows a ledger listing. Zero values mean "no constraint".
type Filter struct {
	From      time.Time
	To        time.Time
	ProductID string
	Type      Type
	Limit     int
	Offset    int
}

// Page is one page of ledger rows plus the unfiltered total for pagination.
type Page struct {
	Transactions []Transaction
	TotalCount   int
}

// Ledger records stock movements. Implementations must make the
// read-check-write of RecordOutbound a single atomic operation: a concurrent
// outbound for the same product can never drive stock negative, and exactly
// one of two competing requests for the last units succeeds.
type Ledger interface {
	// RecordOutbound decrements stock and appends an OUT row. It fails with
	// *stock.InsufficientStockError when quantity exceeds on-hand stock.
	RecordOutbound(ctx context.Context, productID string, quantity int, reason, referenceNumber string) (*Transaction, error)

	// RecordInbound increments stock and appends an IN row.
	RecordInbound(ctx context.Context, productID string, quantity int, unitPrice decimal.Decimal, reason, supplierName, referenceNumber string) (*Transaction, error)

	// ListTransactions returns ledger rows matching the filter, newest first.
	ListTransactions(ctx context.Context, f Filter) (*Page, error)
}
