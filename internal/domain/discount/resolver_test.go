package discount

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Three lines, subtotal 25.00, total quantity 6.
func sampleItems() []Item {
	return []Item{
		{ProductID: "espresso-single", Price: d("2.50"), Quantity: 4},
		{ProductID: "croissant-butter", Price: d("3.10"), Quantity: 1},
		{ProductID: "sandwich-club", Price: d("11.90"), Quantity: 1},
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		items []Item
		want  string
	}{
		{
			name:  "percentage whole order",
			rule:  Rule{ID: "r1", Kind: KindPercentage, Scope: ScopeWholeOrder, Value: d("15")},
			items: sampleItems(),
			want:  "3.75",
		},
		{
			name:  "percentage per item scope equals whole order",
			rule:  Rule{ID: "r1", Kind: KindPercentage, Scope: ScopePerItem, Value: d("15")},
			items: sampleItems(),
			want:  "3.75",
		},
		{
			name:  "fixed whole order",
			rule:  Rule{ID: "r2", Kind: KindFixed, Scope: ScopeWholeOrder, Value: d("5.00")},
			items: sampleItems(),
			want:  "5",
		},
		{
			name:  "fixed whole order capped at subtotal",
			rule:  Rule{ID: "r2", Kind: KindFixed, Scope: ScopeWholeOrder, Value: d("40.00")},
			items: sampleItems(),
			want:  "25",
		},
		{
			name:  "fixed per item multiplies by units",
			rule:  Rule{ID: "r3", Kind: KindFixed, Scope: ScopePerItem, Value: d("0.50")},
			items: sampleItems(),
			want:  "3",
		},
		{
			name:  "fixed per item capped at subtotal",
			rule:  Rule{ID: "r3", Kind: KindFixed, Scope: ScopePerItem, Value: d("10.00")},
			items: sampleItems(),
			want:  "25",
		},
		{
			name:  "min order amount met exactly",
			rule:  Rule{ID: "r4", Kind: KindPercentage, Value: d("10"), MinOrderAmount: d("25.00")},
			items: sampleItems(),
			want:  "2.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(&tt.rule, tt.items)
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestApply_NotEligible(t *testing.T) {
	rule := Rule{ID: "big-basket", Kind: KindFixed, Value: d("5.00"), MinOrderAmount: d("30.00")}

	_, err := Apply(&rule, sampleItems())

	var notEligible *NotEligibleError
	require.True(t, errors.As(err, &notEligible))
	assert.Equal(t, "big-basket", notEligible.RuleID)
	assert.True(t, notEligible.MinAmount.Equal(d("30.00")))
}

func TestApply_UnsupportedKind(t *testing.T) {
	rule := Rule{ID: "r1", Kind: Kind("bogo")}
	_, err := Apply(&rule, sampleItems())
	require.Error(t, err)
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name   string
		rule   Rule
		amount string
		want   bool
	}{
		{name: "active no minimum", rule: Rule{Active: true}, amount: "0.01", want: true},
		{name: "inactive", rule: Rule{Active: false}, amount: "100", want: false},
		{name: "below minimum", rule: Rule{Active: true, MinOrderAmount: d("30")}, amount: "29.99", want: false},
		{name: "at minimum", rule: Rule{Active: true, MinOrderAmount: d("30")}, amount: "30.00", want: true},
		{name: "above minimum", rule: Rule{Active: true, MinOrderAmount: d("30")}, amount: "31", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eligible(tt.rule, d(tt.amount)))
		})
	}
}

func TestCalculateManual(t *testing.T) {
	total := d("27.50")

	tests := []struct {
		name   string
		manual Manual
		want   string
	}{
		{name: "none", manual: Manual{}, want: "0"},
		{name: "explicit none kind", manual: Manual{Kind: KindNone, Value: d("10")}, want: "0"},
		{name: "zero value", manual: Manual{Kind: KindPercentage, Value: d("0")}, want: "0"},
		{name: "percentage", manual: Manual{Kind: KindPercentage, Value: d("10")}, want: "2.75"},
		{name: "full percentage", manual: Manual{Kind: KindPercentage, Value: d("100")}, want: "27.50"},
		{name: "fixed", manual: Manual{Kind: KindFixed, Value: d("5.00")}, want: "5.00"},
		{name: "fixed equal to total", manual: Manual{Kind: KindFixed, Value: d("27.50")}, want: "27.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateManual(tt.manual, total)
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestCalculateManual_Invalid(t *testing.T) {
	total := d("27.50")

	tests := []struct {
		name    string
		manual  Manual
		wantMax string
	}{
		{name: "percentage above 100", manual: Manual{Kind: KindPercentage, Value: d("101")}, wantMax: "100"},
		{name: "fixed above total", manual: Manual{Kind: KindFixed, Value: d("30.00")}, wantMax: "27.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateManual(tt.manual, total)

			var invalidErr *InvalidValueError
			require.True(t, errors.As(err, &invalidErr))
			assert.True(t, invalidErr.Max.Equal(d(tt.wantMax)), "max %s, want %s", invalidErr.Max, tt.wantMax)
		})
	}

	t.Run("negative value", func(t *testing.T) {
		_, err := CalculateManual(Manual{Kind: KindFixed, Value: d("-1")}, total)
		var invalidErr *InvalidValueError
		require.True(t, errors.As(err, &invalidErr))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := CalculateManual(Manual{Kind: Kind("loyalty"), Value: d("5")}, total)
		var invalidErr *InvalidValueError
		require.True(t, errors.As(err, &invalidErr))
	})
}

func TestResolve(t *testing.T) {
	rule := &Rule{ID: "happy-hours", Name: "Happy Hours 15%"}

	tests := []struct {
		name       string
		ruleAmount string
		rule       *Rule
		manual     string
		wantAmount string
		wantLabel  string
		wantRuleID string
	}{
		{
			name:       "rule larger wins",
			ruleAmount: "5.00", rule: rule, manual: "3.00",
			wantAmount: "5.00", wantLabel: "Happy Hours 15%", wantRuleID: "happy-hours",
		},
		{
			name:       "manual larger wins",
			ruleAmount: "3.00", rule: rule, manual: "5.00",
			wantAmount: "5.00", wantLabel: ManualLabel,
		},
		{
			name:       "equal amounts prefer the rule",
			ruleAmount: "4.00", rule: rule, manual: "4.00",
			wantAmount: "4.00", wantLabel: "Happy Hours 15%", wantRuleID: "happy-hours",
		},
		{
			name:       "manual only",
			ruleAmount: "0", rule: nil, manual: "2.00",
			wantAmount: "2.00", wantLabel: ManualLabel,
		},
		{
			name:       "zero rule amount falls through to manual",
			ruleAmount: "0", rule: rule, manual: "2.00",
			wantAmount: "2.00", wantLabel: ManualLabel,
		},
		{
			name:       "no discount at all",
			ruleAmount: "0", rule: nil, manual: "0",
			wantAmount: "0", wantLabel: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(d(tt.ruleAmount), tt.rule, d(tt.manual))
			assert.True(t, got.Amount.Equal(d(tt.wantAmount)), "amount %s, want %s", got.Amount, tt.wantAmount)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantRuleID, got.RuleID)
		})
	}
}
