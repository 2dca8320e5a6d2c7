// Command seed-db loads the product catalog and discount rules from JSON
// seed files into PostgreSQL. Safe to run repeatedly: rows are upserted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/huanvu/retailpos/internal/repository"
)

type productJSON struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	MinStockLevel int             `json:"minStockLevel"`
	Unit          string          `json:"unit"`
}

type discountJSON struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Scope          string          `json:"scope"`
	Kind           string          `json:"kind"`
	Value          decimal.Decimal `json:"value"`
	MinOrderAmount decimal.Decimal `json:"minOrderAmount"`
	Active         bool            `json:"active"`
}

func main() {
	var (
		databaseURL   string
		productsFile  string
		discountsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&discountsFile, "discounts-file", "db/seed/discounts.json", "path to discounts JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, discountsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, discountsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedDiscounts(ctx, pool, discountsFile); err != nil {
		return errors.Wrap(err, "seed discounts")
	}

	return nil
}

const upsertProductSQL = `
INSERT INTO products (id, name, price, stock_quantity, min_stock_level, unit)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    price = EXCLUDED.price,
    min_stock_level = EXCLUDED.min_stock_level,
    unit = EXCLUDED.unit,
    updated_at = now()`

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		unit := p.Unit
		if unit == "" {
			unit = "pcs"
		}
		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Price, p.StockQuantity, p.MinStockLevel, unit,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

const upsertDiscountSQL = `
INSERT INTO discounts (id, name, scope, kind, value, min_order_amount, active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    scope = EXCLUDED.scope,
    kind = EXCLUDED.kind,
    value = EXCLUDED.value,
    min_order_amount = EXCLUDED.min_order_amount,
    active = EXCLUDED.active`

func seedDiscounts(ctx context.Context, pool *pgxpool.Pool, discountsFile string) error {
	slog.Info("reading discounts file", slog.String("path", discountsFile))

	data, err := os.ReadFile(discountsFile)
	if err != nil {
		return errors.Wrap(err, "read discounts file")
	}

	var rules []discountJSON
	if err := json.Unmarshal(data, &rules); err != nil {
		return errors.Wrap(err, "parse discounts JSON")
	}

	slog.Info("upserting discounts", slog.Int("count", len(rules)))

	for _, d := range rules {
		if _, err := pool.Exec(ctx, upsertDiscountSQL,
			d.ID, d.Name, d.Scope, d.Kind, d.Value, d.MinOrderAmount, d.Active,
		); err != nil {
			return errors.Wrapf(err, "upsert discount %s", d.ID)
		}

		slog.Info("upserted discount", slog.String("id", d.ID), slog.String("name", d.Name))
	}

	return nil
}
