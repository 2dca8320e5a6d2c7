package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/huanvu/retailpos/internal/domain/catalog"
	"github.com/huanvu/retailpos/internal/domain/inventory"
	"github.com/huanvu/retailpos/internal/domain/stock"
)

const (
	// Conditional decrement: zero rows affected means the product is missing
	// or short on stock. This is the only authoritative stock guard; checks
	// done outside this statement are advisory.
	decrementStockSQL = `UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2
		RETURNING stock_quantity + $2, stock_quantity, price`

	incrementStockSQL = `UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1
		RETURNING stock_quantity - $2, stock_quantity`

	getStockQuantitySQL = `SELECT stock_quantity FROM products WHERE id = $1`

	insertTransactionSQL = `INSERT INTO inventory_transactions
		(id, product_id, type, quantity, stock_before, stock_after,
		 unit_price, total_value, reason, supplier_name, reference_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	listTransactionsSQL = `SELECT t.id, t.product_id, p.name, t.type, t.quantity,
			t.stock_before, t.stock_after, t.unit_price, t.total_value,
			t.reason, t.supplier_name, t.reference_number, t.created_at
		FROM inventory_transactions t
		JOIN products p ON p.id = t.product_id`
)

var _ inventory.Ledger = (*InventoryRepository)(nil)

// InventoryRepository implements inventory.Ledger backed by PostgreSQL. It is
// the sole writer of products.stock_quantity: every write pairs a conditional
// stock update with an immutable ledger row in one transaction.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository returns an InventoryRepository that uses the given pool.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// RecordOutbound atomically decrements stock and appends an OUT row.
func (r *InventoryRepository) RecordOutbound(ctx context.Context, productID string, quantity int, reason, referenceNumber string) (*inventory.Transaction, error) {
	if quantity <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin outbound tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	before, after, price, err := decrementStock(ctx, tx, productID, quantity)
	if err != nil {
		return nil, err
	}

	t := &inventory.Transaction{
		ID:              uuid.New().String(),
		ProductID:       productID,
		Type:            inventory.TypeOut,
		Quantity:        quantity,
		StockBefore:     before,
		StockAfter:      after,
		UnitPrice:       price,
		TotalValue:      price.Mul(decimal.NewFromInt(int64(quantity))),
		Reason:          reason,
		ReferenceNumber: referenceNumber,
	}
	if err := insertLedgerRow(ctx, tx, t); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit outbound tx: %w", err)
	}
	return t, nil
}

// RecordInbound atomically increments stock and appends an IN row.
func (r *InventoryRepository) RecordInbound(ctx context.Context, productID string, quantity int, unitPrice decimal.Decimal, reason, supplierName, referenceNumber string) (*inventory.Transaction, error) {
	if quantity <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin inbound tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var before, after int
	err = tx.QueryRow(ctx, incrementStockSQL, productID, quantity).Scan(&before, &after)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("incrementing stock for %q: %w", productID, err)
	}

	t := &inventory.Transaction{
		ID:              uuid.New().String(),
		ProductID:       productID,
		Type:            inventory.TypeIn,
		Quantity:        quantity,
		StockBefore:     before,
		StockAfter:      after,
		UnitPrice:       unitPrice,
		TotalValue:      unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Reason:          reason,
		SupplierName:    supplierName,
		ReferenceNumber: referenceNumber,
	}
	if err := insertLedgerRow(ctx, tx, t); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit inbound tx: %w", err)
	}
	return t, nil
}

// ListTransactions returns ledger rows matching the filter, newest first,
// along with the total row count for pagination.
func (r *InventoryRepository) ListTransactions(ctx context.Context, f inventory.Filter) (*inventory.Page, error) {
	where, args := transactionFilter(f)

	countSQL := `SELECT count(*) FROM inventory_transactions t` + where
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting transactions: %w", err)
	}

	query := listTransactionsSQL + where + " ORDER BY t.created_at DESC"
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
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	txs, err := pgx.CollectRows(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return &inventory.Page{Transactions: txs, TotalCount: total}, nil
}

// transactionFilter builds the WHERE clause and args for a ledger listing.
func transactionFilter(f inventory.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		args = append(args, f.From)
		conds = append(conds, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		conds = append(conds, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		conds = append(conds, fmt.Sprintf("t.product_id = $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		conds = append(conds, fmt.Sprintf("t.type = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// decrementStock runs the conditional decrement inside tx. Zero rows affected
// is resolved into catalog.ErrNotFound or *stock.InsufficientStockError by a
// follow-up read of the current quantity.
func decrementStock(ctx context.Context, tx pgx.Tx, productID string, quantity int) (before, after int, price decimal.Decimal, err error) {
	err = tx.QueryRow(ctx, decrementStockSQL, productID, quantity).Scan(&before, &after, &price)
	if err == nil {
		return before, after, price, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, decimal.Zero, fmt.Errorf("decrementing stock for %q: %w", productID, err)
	}

	var available int
	err = tx.QueryRow(ctx, getStockQuantitySQL, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, decimal.Zero, catalog.ErrNotFound
		}
		return 0, 0, decimal.Zero, fmt.Errorf("reading stock for %q: %w", productID, err)
	}
	return 0, 0, decimal.Zero, &stock.InsufficientStockError{
		ProductID: productID,
		Requested: quantity,
		Available: available,
	}
}

func insertLedgerRow(ctx context.Context, tx pgx.Tx, t *inventory.Transaction) error {
	_, err := tx.Exec(ctx, insertTransactionSQL,
		t.ID, t.ProductID, string(t.Type), t.Quantity, t.StockBefore, t.StockAfter,
		t.UnitPrice, t.TotalValue, t.Reason, t.SupplierName, t.ReferenceNumber,
	)
	if err != nil {
		return fmt.Errorf("inserting inventory transaction: %w", err)
	}
	return nil
}

func scanTransaction(row pgx.CollectableRow) (inventory.Transaction, error) {
	var (
		t   inventory.Transaction
		typ string
	)
	err := row.Scan(
		&t.ID, &t.ProductID, &t.ProductName, &typ, &t.Quantity,
		&t.StockBefore, &t.StockAfter, &t.UnitPrice, &t.TotalValue,
		&t.Reason, &t.SupplierName, &t.ReferenceNumber, &t.CreatedAt,
	)
	t.Type = inventory.Type(typ)
	return t, err
}
