package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/huanvu/retailpos/internal/domain/inventory"
	"github.com/huanvu/retailpos/internal/domain/order"
)

const (
	orderColumns = `id, items, subtotal, tax_amount, discount_amount, total,
		discount_label, discount_rule_id, customer_id, payment_method,
		payment_status, status, cancellation_reason, created_at`

	insertOrderSQL = `INSERT INTO orders
		(id, items, subtotal, tax_amount, discount_amount, total,
		 discount_label, discount_rule_id, customer_id, payment_method,
		 payment_status, status, cancellation_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	// FOR UPDATE pins the row so the status check and the stock decrements
	// below commit or roll back together.
	lockOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	completeOrderSQL = `UPDATE orders
		SET status = 'completed', payment_status = 'paid', payment_method = $2
		WHERE id = $1`

	cancelOrderSQL = `UPDATE orders
		SET status = 'cancelled', cancellation_reason = $2
		WHERE id = $1`
)

// saleReason is recorded on ledger rows written by order completion.
const saleReason = "sale"

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. The
// completion paths fold the status transition, the per-line conditional stock
// decrements, and the ledger rows into one database transaction.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order in its current state without touching stock.
// Order lines are serialized to JSON for storage in the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertOrderSQL,
		o.ID, itemsJSON, o.Subtotal, o.TaxAmount, o.DiscountAmount, o.Total,
		o.DiscountLabel, o.DiscountRuleID, o.CustomerID, o.PaymentMethod,
		string(o.PaymentStatus), string(o.Status), o.CancellationReason,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get returns a single order by ID.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, f order.ListFilter) ([]order.Order, error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Complete transitions a pending order to completed and decrements stock for
// every line. The whole operation commits or rolls back as one unit: a line
// short on stock leaves both the order and every product untouched.
func (r *OrderRepository) Complete(ctx context.Context, id, paymentMethod string) (*order.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin complete tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, lockOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("locking order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("locking order %q: %w", id, err)
	}

	switch o.Status {
	case order.StatusCompleted:
		return nil, order.ErrAlreadyCompleted
	case order.StatusCancelled:
		return nil, order.ErrCancelled
	}

	if err := r.writeOutboundLines(ctx, tx, &o); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, completeOrderSQL, id, paymentMethod); err != nil {
		return nil, fmt.Errorf("completing order %q: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit complete tx: %w", err)
	}

	o.Status = order.StatusCompleted
	o.PaymentStatus = order.PaymentPaid
	o.PaymentMethod = paymentMethod
	return &o, nil
}

// CreateCompleted persists a new order directly in completed state, with the
// same all-or-nothing stock decrement as Complete.
func (r *OrderRepository) CreateCompleted(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, itemsJSON, o.Subtotal, o.TaxAmount, o.DiscountAmount, o.Total,
		o.DiscountLabel, o.DiscountRuleID, o.CustomerID, o.PaymentMethod,
		string(order.PaymentPaid), string(order.StatusCompleted), "",
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	if err := r.writeOutboundLines(ctx, tx, o); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create tx: %w", err)
	}
	return nil
}

// Cancel transitions a pending or completed order to cancelled. Stock is
// deliberately left untouched.
func (r *OrderRepository) Cancel(ctx context.Context, id, reason string) (*order.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, lockOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("locking order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("locking order %q: %w", id, err)
	}

	if o.Status == order.StatusCancelled {
		return nil, order.ErrAlreadyCancelled
	}

	if _, err := tx.Exec(ctx, cancelOrderSQL, id, reason); err != nil {
		return nil, fmt.Errorf("cancelling order %q: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancel tx: %w", err)
	}

	o.Status = order.StatusCancelled
	o.CancellationReason = reason
	return &o, nil
}

// writeOutboundLines decrements stock and appends one OUT ledger row per
// order line, each checked independently against current stock inside tx.
func (r *OrderRepository) writeOutboundLines(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	for _, line := range o.Items {
		before, after, price, err := decrementStock(ctx, tx, line.ProductID, line.Quantity)
		if err != nil {
			return err
		}

		t := &inventory.Transaction{
			ID:              uuid.New().String(),
			ProductID:       line.ProductID,
			Type:            inventory.TypeOut,
			Quantity:        line.Quantity,
			StockBefore:     before,
			StockAfter:      after,
			UnitPrice:       price,
			TotalValue:      price.Mul(decimal.NewFromInt(int64(line.Quantity))),
			Reason:          saleReason,
			ReferenceNumber: o.ID,
		}
		if err := insertLedgerRow(ctx, tx, t); err != nil {
			return err
		}
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		itemsJSON     []byte
		paymentStatus string
		status        string
	)
	err := row.Scan(
		&o.ID, &itemsJSON, &o.Subtotal, &o.TaxAmount, &o.DiscountAmount, &o.Total,
		&o.DiscountLabel, &o.DiscountRuleID, &o.CustomerID, &o.PaymentMethod,
		&paymentStatus, &status, &o.CancellationReason, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	o.PaymentStatus = order.PaymentStatus(paymentStatus)
	o.Status = order.Status(status)
	return o, nil
}
