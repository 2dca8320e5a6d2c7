package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. Completed and cancelled are terminal.
type Status string

const (
	// StatusPending marks a persisted cart awaiting payment ("save for later").
	StatusPending Status = "pending"
	// StatusCompleted marks a paid order. Reaching it decrements stock.
	StatusCompleted Status = "completed"
	// StatusCancelled marks an abandoned order. Requires a reason.
	StatusCancelled Status = "cancelled"
)

// PaymentStatus tracks the payment outcome recorded on the order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

var (
	// ErrEmptyCart is returned when an order is created with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyCompleted guards completion idempotency: a retried complete
	// call must fail here instead of decrementing stock again.
	ErrAlreadyCompleted = errors.New("order is already completed")
	// ErrCancelled is returned when completing a cancelled order.
	ErrCancelled = errors.New("order is cancelled")
	// ErrAlreadyCancelled is returned when cancelling a cancelled order.
	ErrAlreadyCancelled = errors.New("order is already cancelled")
	// ErrNotPending is returned when reopening an order that is not pending.
	ErrNotPending = errors.New("only pending orders can be reopened")
	// ErrMissingReason is returned when cancelling without a reason.
	ErrMissingReason = errors.New("cancellation reason is required")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return "product " + e.ProductID + " not found"
}

// Line is one order line: a product reference plus name and price snapshots
// taken at checkout time.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Order is a priced, persisted sale.
// Invariant: Total = Subtotal + TaxAmount - DiscountAmount, and Total >= 0.
type Order struct {
	ID                 string
	Items              []Line
	Subtotal           decimal.Decimal
	TaxAmount          decimal.Decimal
	DiscountAmount     decimal.Decimal
	Total              decimal.Decimal
	DiscountLabel      string
	DiscountRuleID     string
	CustomerID         string
	PaymentMethod      string
	PaymentStatus      PaymentStatus
	Status             Status
	CancellationReason string
	CreatedAt          time.Time
}

// ListFilter narrows an order listing. Zero values mean "no constraint".
type ListFilter struct {
	Status Status
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// Repository defines persistence for orders. Complete and CreateCompleted
// own the inventory side effect: the status transition, the per-line
// conditional stock decrements, and the ledger rows are one atomic unit.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)

	// Complete flips a pending order to completed and decrements stock for
	// every line, all-or-nothing. It fails with ErrNotFound,
	// ErrAlreadyCompleted, ErrCancelled, or *stock.InsufficientStockError.
	Complete(ctx context.Context, id, paymentMethod string) (*Order, error)

	// CreateCompleted persists a new order directly in completed state with
	// the same atomic stock decrement as Complete.
	CreateCompleted(ctx context.Context, o *Order) error

	// Cancel transitions a pending or completed order to cancelled.
	Cancel(ctx context.Context, id, reason string) (*Order, error)
}
