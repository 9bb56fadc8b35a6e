// Command discount-import loads discount codes from gzip-compressed CSV files.
//
//	discount-import [--blocklist leaked.gz] promos-2026q1.csv.gz promos-2026q2.csv.gz
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/ingest"
	"github.com/xenking/storefront-checkout/internal/storage/postgres"
)

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var (
		databaseURL string
		blocklists  stringList
		batchSize   int
		bloomCap    uint
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Var(&blocklists, "blocklist", "gzip file of codes to skip, one per line (repeatable)")
	flag.IntVar(&batchSize, "batch-size", ingest.DefaultBatchSize, "codes written per transaction")
	flag.UintVar(&bloomCap, "blocklist-capacity", 1_000_000, "expected number of blocked codes")
	flag.Parse()

	lg, err := zap.NewProduction()
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
	files := flag.Args()
	if len(files) == 0 {
		lg.Fatal("No import files given")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, files, blocklists, batchSize, bloomCap); err != nil {
		lg.Fatal("Discount import failed", zap.Error(err))
	}
}

func run(ctx context.Context, lg *zap.Logger, databaseURL string, files, blocklists []string, batchSize int, bloomCap uint) error {
	opts := []ingest.Option{ingest.WithBatchSize(batchSize)}
	if len(blocklists) > 0 {
		lg.Info("Loading blocklists", zap.Strings("files", blocklists))
		bl, err := ingest.LoadBlocklist(ctx, ingest.BlocklistConfig{Capacity: bloomCap}, blocklists...)
		if err != nil {
			return errors.Wrap(err, "load blocklist")
		}
		opts = append(opts, ingest.WithBlocklist(bl))
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "migrate")
	}

	imp := ingest.NewImporter(postgres.NewDiscountRepository(pool), lg, opts...)
	stats, err := imp.Import(ctx, files...)
	if err != nil {
		return err
	}

	lg.Info("Discount import completed",
		zap.Int("read", stats.Read),
		zap.Int("invalid", stats.Invalid),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("blocked", stats.Blocked),
		zap.Int("written", stats.Written),
	)
	return nil
}
