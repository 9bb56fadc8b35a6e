package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/domain/discount"
	"github.com/xenking/storefront-checkout/internal/storage/postgres"
)

const insertProductSQL = `INSERT INTO products (name, description, category, sku, price_incl_vat, stock_quantity)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (sku) DO NOTHING`

type productJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	SKU         string          `json:"sku"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, productsFile); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}

	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, productsFile string) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, lg, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedDiscountCodes(ctx, lg, postgres.NewDiscountRepository(pool)); err != nil {
		return errors.Wrap(err, "seed discount codes")
	}
	return nil
}

// seedProducts inserts products that are not yet present. Existing rows keep
// their stock so reseeding a live database does not restock it.
func seedProducts(ctx context.Context, lg *zap.Logger, pool *pgxpool.Pool, productsFile string) error {
	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, p := range products {
			tag, err := tx.Exec(ctx, insertProductSQL, p.Name, p.Description, p.Category, p.SKU, p.Price, p.Stock)
			if err != nil {
				return errors.Wrapf(err, "insert product %s", p.SKU)
			}
			lg.Info("Seeded product",
				zap.String("sku", p.SKU),
				zap.String("name", p.Name),
				zap.Bool("inserted", tag.RowsAffected() == 1),
			)
		}
		return nil
	})
}

func seedDiscountCodes(ctx context.Context, lg *zap.Logger, repo *postgres.DiscountRepository) error {
	minWelcome := decimal.NewFromInt(500)
	codes := []discount.Code{
		{
			Code:          "WELCOME10",
			Description:   "10% off your first order over R500",
			Type:          discount.TypePercentage,
			Value:         decimal.NewFromInt(10),
			MinOrderValue: &minWelcome,
			Active:        true,
		},
		{
			Code:        "SAVE50",
			Description: "R50 off any order",
			Type:        discount.TypeFixed,
			Value:       decimal.NewFromInt(50),
			Active:      true,
		},
	}

	if err := repo.UpsertCodes(ctx, codes); err != nil {
		return err
	}
	for _, c := range codes {
		lg.Info("Seeded discount code", zap.String("code", c.Code), zap.String("description", c.Description))
	}
	return nil
}
