// Package tax computes VAT for an order. The tax base is the pre-discount
// subtotal, applied uniformly across checkout and reporting.
package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// DefaultRate is the VAT rate used when no configuration row exists yet.
var DefaultRate = decimal.NewFromInt(10)

var hundred = decimal.NewFromInt(100)

// Config is the store-wide VAT configuration. Rate is a percentage (10 means
// 10%).
type Config struct {
	EnableVAT bool
	Rate      decimal.Decimal
	Label     string
}

// DefaultConfig returns the configuration applied before an operator saves
// their own: VAT disabled at the default rate.
func DefaultConfig() Config {
	return Config{EnableVAT: false, Rate: DefaultRate, Label: "VAT"}
}

// Compute returns the tax amount for the given pre-discount subtotal. It
// returns zero when VAT is disabled.
func Compute(subtotal decimal.Decimal, cfg Config) decimal.Decimal {
	if !cfg.EnableVAT {
		return decimal.Zero
	}
	return subtotal.Mul(cfg.Rate).Div(hundred).Round(2)
}

// Repository persists the single store-wide tax configuration.
type Repository interface {
	Get(ctx context.Context) (Config, error)
	Update(ctx context.Context, cfg Config) error
}
