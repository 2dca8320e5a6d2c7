package discount

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount amount for a rule against the given order
// lines. It returns NotEligibleError when the order subtotal is below the
// rule's minimum.
func Apply(rule *Rule, items []Item) (decimal.Decimal, error) {
	subtotal := calcSubtotal(items)

	if rule.MinOrderAmount.IsPositive() && subtotal.LessThan(rule.MinOrderAmount) {
		return decimal.Zero, &NotEligibleError{RuleID: rule.ID, MinAmount: rule.MinOrderAmount}
	}

	switch rule.Kind {
	case KindPercentage:
		// Percentage of the subtotal, regardless of scope: applying N% to
		// every line sums to N% of the whole.
		return floorAtZero(subtotal.Mul(rule.Value).Div(hundred)).Round(2), nil
	case KindFixed:
		if rule.Scope == ScopePerItem {
			units := decimal.NewFromInt(int64(totalQuantity(items)))
			return decimal.Min(rule.Value.Mul(units), subtotal).Round(2), nil
		}
		return decimal.Min(rule.Value, subtotal).Round(2), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported discount kind: %q", rule.Kind)
	}
}

// Eligible reports whether the rule can apply to an order of the given amount.
func Eligible(rule Rule, orderAmount decimal.Decimal) bool {
	if !rule.Active {
		return false
	}
	return rule.MinOrderAmount.IsZero() || !orderAmount.LessThan(rule.MinOrderAmount)
}

// CalculateManual validates and computes a cashier-entered discount against
// the pre-discount order total. Percentages above 100 and fixed amounts above
// the total are rejected; the error echoes the maximum allowed fixed amount.
func CalculateManual(m Manual, preDiscountTotal decimal.Decimal) (decimal.Decimal, error) {
	if m.None() {
		return decimal.Zero, nil
	}
	if m.Value.IsNegative() {
		return decimal.Zero, &InvalidValueError{Reason: "discount value must not be negative"}
	}

	switch m.Kind {
	case KindPercentage:
		if m.Value.GreaterThan(hundred) {
			return decimal.Zero, &InvalidValueError{
				Reason: "percentage discount must not exceed 100",
				Max:    hundred,
			}
		}
		return preDiscountTotal.Mul(m.Value).Div(hundred).Round(2), nil
	case KindFixed:
		if m.Value.GreaterThan(preDiscountTotal) {
			return decimal.Zero, &InvalidValueError{
				Reason: fmt.Sprintf("fixed discount must not exceed the order total of %s", preDiscountTotal),
				Max:    preDiscountTotal,
			}
		}
		return m.Value.Round(2), nil
	default:
		return decimal.Zero, &InvalidValueError{Reason: fmt.Sprintf("unsupported discount kind: %q", m.Kind)}
	}
}

// Resolve picks the single effective discount for an order. When both a
// rule-based and a manual amount are present the larger one wins; they are
// never summed. Equal amounts prefer the rule so the order keeps a stable
// catalog reference for audit.
func Resolve(ruleAmount decimal.Decimal, rule *Rule, manualAmount decimal.Decimal) Applied {
	if rule != nil && ruleAmount.IsPositive() && !ruleAmount.LessThan(manualAmount) {
		return Applied{Amount: ruleAmount, Label: rule.Name, RuleID: rule.ID}
	}
	if manualAmount.IsPositive() {
		return Applied{Amount: manualAmount, Label: ManualLabel}
	}
	return Applied{Amount: decimal.Zero}
}

func calcSubtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

func totalQuantity(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
