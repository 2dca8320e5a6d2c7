// Command catalog-import bulk-loads product catalog feeds into PostgreSQL.
// Feeds are gzip-compressed files with one product per line:
//
//	sku|name|price|stock|min_stock|unit
//
// Multiple feed files are parsed concurrently; duplicate SKUs across feeds
// are detected with a bloom filter backed by an exact set of the filter's
// positives, so dedupe memory scales with the duplicates actually present
// instead of the whole catalog. Writes are idempotent upserts, and existing
// products keep their live stock quantity, only catalog attributes are
// refreshed.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/huanvu/retailpos/internal/repository"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 50_000
	fieldCount    = 6
)

type feedProduct struct {
	sku           string
	name          string
	price         decimal.Decimal
	stockQuantity int
	minStockLevel int
	unit          string
}

func main() {
	var (
		dataDir     string
		pattern     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing catalog feed files")
	flag.StringVar(&pattern, "pattern", "catalog-*.gz", "glob pattern for feed files inside data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, dataDir, pattern, databaseURL); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, dataDir, pattern, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, pattern))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no feed files matching %s in %s", pattern, dataDir)
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("importing feeds", slog.Int("files", len(files)))

	// Parsers fan in to a single writer so the SKU dedupe stays simple.
	products := make(chan feedProduct, 1024)

	g, ctx := errgroup.WithContext(ctx)
	parsers, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		parsers.Go(parseFeedFile(ctx, f, products))
	}
	g.Go(func() error {
		defer close(products)
		return parsers.Wait()
	})
	g.Go(writeProducts(ctx, pool, products))

	return g.Wait()
}

func parseFeedFile(ctx context.Context, path string, out chan<- feedProduct) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var lineNo, parsed, skipped uint64
		scanner := bufio.NewScanner(gz)
		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}
			lineNo++

			p, ok := parseLine(scanner.Text())
			if !ok {
				skipped++
				continue
			}
			parsed++
			if parsed%progressEvery == 0 {
				slog.Info("parse progress", slog.String("file", path), slog.Uint64("parsed", parsed))
			}

			select {
			case out <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("feed parsed",
			slog.String("file", path),
			slog.Uint64("lines", lineNo),
			slog.Uint64("parsed", parsed),
			slog.Uint64("skipped", skipped),
		)

		return nil
	}
}

// parseLine parses a pipe-separated feed line. Malformed lines report not-ok
// so a bad supplier export degrades the import instead of aborting it.
func parseLine(line string) (feedProduct, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return feedProduct{}, false
	}

	fields := strings.Split(line, "|")
	if len(fields) != fieldCount {
		return feedProduct{}, false
	}

	sku := strings.TrimSpace(fields[0])
	name := strings.TrimSpace(fields[1])
	if sku == "" || name == "" {
		return feedProduct{}, false
	}

	price, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
	if err != nil || price.IsNegative() {
		return feedProduct{}, false
	}
	stockQty, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil || stockQty < 0 {
		return feedProduct{}, false
	}
	minStock, err := strconv.Atoi(strings.TrimSpace(fields[4]))
	if err != nil || minStock < 0 {
		return feedProduct{}, false
	}
	unit := strings.TrimSpace(fields[5])
	if unit == "" {
		unit = "pcs"
	}

	return feedProduct{
		sku:           sku,
		name:          name,
		price:         price,
		stockQuantity: stockQty,
		minStockLevel: minStock,
		unit:          unit,
	}, true
}

const importProductSQL = `
INSERT INTO products (id, name, price, stock_quantity, min_stock_level, unit)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    price = EXCLUDED.price,
    min_stock_level = EXCLUDED.min_stock_level,
    unit = EXCLUDED.unit,
    updated_at = now()`

// skuDedupe tracks SKUs seen across feeds. The bloom filter answers
// "definitely new" without materializing the full SKU set; only filter
// positives enter the exact set, so its size tracks the duplicates in the
// feeds rather than the catalog.
type skuDedupe struct {
	filter *bloom.BloomFilter
	seen   map[string]struct{}
}

func newSKUDedupe() *skuDedupe {
	return &skuDedupe{
		filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
		seen:   make(map[string]struct{}),
	}
}

// duplicate records a sighting of sku and reports whether it was confirmed
// seen before. A SKU's second sighting, like a first sighting that collides
// in the filter, reports false and gets written once more, which the
// idempotent upsert absorbs.
func (d *skuDedupe) duplicate(sku string) bool {
	if d.filter.TestString(sku) {
		if _, dup := d.seen[sku]; dup {
			return true
		}
		d.seen[sku] = struct{}{}
	}
	d.filter.AddString(sku)
	return false
}

// writeProducts upserts parsed products, skipping SKUs already written.
func writeProducts(ctx context.Context, pool *pgxpool.Pool, in <-chan feedProduct) func() error {
	return func() error {
		dedupe := newSKUDedupe()
		var written, duplicates uint64

		for p := range in {
			if dedupe.duplicate(p.sku) {
				duplicates++
				continue
			}

			if _, err := pool.Exec(ctx, importProductSQL,
				p.sku, p.name, p.price, p.stockQuantity, p.minStockLevel, p.unit,
			); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.sku)
			}

			written++
			if written%progressEvery == 0 {
				slog.Info("write progress", slog.Uint64("written", written))
			}
		}

		slog.Info("catalog written", slog.Uint64("products", written), slog.Uint64("duplicates", duplicates))
		return nil
	}
}
