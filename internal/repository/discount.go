package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/huanvu/retailpos/internal/domain/discount"
)

const (
	listActiveDiscountsSQL = `SELECT id, name, scope, kind, value, min_order_amount, active
		FROM discounts WHERE active = TRUE ORDER BY name`

	getDiscountByIDSQL = `SELECT id, name, scope, kind, value, min_order_amount, active
		FROM discounts WHERE id = $1 AND active = TRUE`
)

// ErrDiscountNotFound is returned when no active discount matches the ID.
var ErrDiscountNotFound = errors.New("discount not found")

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// ListActive returns all active discount rules.
func (r *DiscountRepository) ListActive(ctx context.Context) ([]discount.Rule, error) {
	rows, err := r.pool.Query(ctx, listActiveDiscountsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing discounts: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscountRule)
}

// GetByID returns a single active discount rule.
// Returns ErrDiscountNotFound when no matching active rule exists.
func (r *DiscountRepository) GetByID(ctx context.Context, id string) (*discount.Rule, error) {
	rows, err := r.pool.Query(ctx, getDiscountByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting discount %q: %w", id, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanDiscountRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDiscountNotFound
		}
		return nil, fmt.Errorf("getting discount %q: %w", id, err)
	}
	return &rule, nil
}

func scanDiscountRule(row pgx.CollectableRow) (discount.Rule, error) {
	var (
		rule  discount.Rule
		scope string
		kind  string
	)
	err := row.Scan(&rule.ID, &rule.Name, &scope, &kind, &rule.Value, &rule.MinOrderAmount, &rule.Active)
	rule.Scope = discount.Scope(scope)
	rule.Kind = discount.Kind(kind)
	return rule, err
}
