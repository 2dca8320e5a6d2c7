package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/huanvu/retailpos/internal/domain/tax"
)

const (
	getTaxConfigSQL = `SELECT enable_vat, vat_rate, vat_label FROM tax_config WHERE id = 1`

	updateTaxConfigSQL = `INSERT INTO tax_config (id, enable_vat, vat_rate, vat_label)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			enable_vat = EXCLUDED.enable_vat,
			vat_rate = EXCLUDED.vat_rate,
			vat_label = EXCLUDED.vat_label`
)

var _ tax.Repository = (*TaxConfigRepository)(nil)

// TaxConfigRepository implements tax.Repository against the single-row
// tax_config table.
type TaxConfigRepository struct {
	pool *pgxpool.Pool
}

// NewTaxConfigRepository returns a TaxConfigRepository that uses the given pool.
func NewTaxConfigRepository(pool *pgxpool.Pool) *TaxConfigRepository {
	return &TaxConfigRepository{pool: pool}
}

// Get returns the store-wide VAT configuration. A missing row falls back to
// the default configuration.
func (r *TaxConfigRepository) Get(ctx context.Context) (tax.Config, error) {
	var cfg tax.Config
	err := r.pool.QueryRow(ctx, getTaxConfigSQL).Scan(&cfg.EnableVAT, &cfg.Rate, &cfg.Label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tax.DefaultConfig(), nil
		}
		return tax.Config{}, fmt.Errorf("getting tax config: %w", err)
	}
	return cfg, nil
}

// Update upserts the store-wide VAT configuration.
func (r *TaxConfigRepository) Update(ctx context.Context, cfg tax.Config) error {
	_, err := r.pool.Exec(ctx, updateTaxConfigSQL, cfg.EnableVAT, cfg.Rate, cfg.Label)
	if err != nil {
		return fmt.Errorf("updating tax config: %w", err)
	}
	return nil
}
