package discount

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scope determines what part of the order a rule applies to.
type Scope string

const (
	// ScopeWholeOrder applies the rule once to the order subtotal.
	ScopeWholeOrder Scope = "whole_order"
	// ScopePerItem applies the rule to every unit in the order.
	ScopePerItem Scope = "per_item"
)

// Kind enumerates the supported discount strategies.
type Kind string

const (
	// KindPercentage deducts a percentage of the base amount.
	KindPercentage Kind = "percentage"
	// KindFixed deducts a fixed monetary amount capped at the base amount.
	KindFixed Kind = "fixed"
	// KindNone marks an absent manual discount.
	KindNone Kind = "none"
)

// ManualLabel is recorded on an order when the cashier-entered discount wins
// over the rule-based one. Orders never reference a catalog rule in that case.
const ManualLabel = "manual discount"

// NotEligibleError is returned when an order amount does not reach a rule's
// minimum. It is a validation outcome, not a failure: the caller reports it
// and continues without the rule.
type NotEligibleError struct {
	RuleID    string
	MinAmount decimal.Decimal
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("discount %s requires a minimum order amount of %s", e.RuleID, e.MinAmount)
}

// InvalidValueError rejects a manual discount the cashier typed in. For fixed
// amounts Max echoes the largest value that would have been accepted.
type InvalidValueError struct {
	Reason string
	Max    decimal.Decimal
}

func (e *InvalidValueError) Error() string {
	return e.Reason
}

// Rule is a catalog-configured discount. Rules are immutable once fetched;
// the resolver evaluates them and never writes them back.
type Rule struct {
	ID             string
	Name           string
	Scope          Scope
	Kind           Kind
	Value          decimal.Decimal
	MinOrderAmount decimal.Decimal
	Active         bool
}

// Manual is an ad-hoc, order-local discount entered at checkout time.
type Manual struct {
	Kind  Kind
	Value decimal.Decimal
}

// None reports whether no manual discount was entered.
func (m Manual) None() bool {
	return m.Kind == "" || m.Kind == KindNone || m.Value.IsZero()
}

// Item is an order line as seen by the discount calculation.
type Item struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

// Applied describes the single discount recorded against an order.
type Applied struct {
	Amount decimal.Decimal
	Label  string
	RuleID string
}

// Repository provides lookup of discount rules.
type Repository interface {
	ListActive(ctx context.Context) ([]Rule, error)
	GetByID(ctx context.Context, id string) (*Rule, error)
}
