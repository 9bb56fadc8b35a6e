// Package ingest bulk-loads discount codes from gzip-compressed CSV files.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-checkout/internal/domain/discount"
)

// DefaultBatchSize is the number of codes written per transaction.
const DefaultBatchSize = 1000

// Store persists discount codes. Existing codes are updated in place and
// keep their usage counters.
type Store interface {
	UpsertCodes(ctx context.Context, codes []discount.Code) error
}

// Stats summarizes an import run.
type Stats struct {
	Read       int
	Invalid    int
	Duplicates int
	Blocked    int
	Written    int
}

// Importer parses import files and writes the surviving codes to a Store.
type Importer struct {
	store     Store
	blocklist *Blocklist
	batchSize int
	lg        *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithBlocklist skips codes on bl.
func WithBlocklist(bl *Blocklist) Option {
	return func(i *Importer) { i.blocklist = bl }
}

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// NewImporter creates an Importer writing to store.
func NewImporter(store Store, lg *zap.Logger, opts ...Option) *Importer {
	i := &Importer{
		store:     store,
		batchSize: DefaultBatchSize,
		lg:        lg,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

type fileResult struct {
	codes   []discount.Code
	read    int
	invalid int
}

// Import parses paths concurrently, then writes codes in file order. When a
// code appears more than once the first occurrence wins. Invalid rows are
// logged and skipped; I/O and store errors abort the run.
func (i *Importer) Import(ctx context.Context, paths ...string) (Stats, error) {
	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for n, path := range paths {
		g.Go(func() error {
			res, err := i.parseFile(gctx, path)
			if err != nil {
				return errors.Wrapf(err, "parse %s", path)
			}
			results[n] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	var (
		stats Stats
		seen  = make(map[string]struct{})
		batch = make([]discount.Code, 0, i.batchSize)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.store.UpsertCodes(ctx, batch); err != nil {
			return errors.Wrap(err, "write batch")
		}
		stats.Written += len(batch)
		i.lg.Debug("Batch written", zap.Int("size", len(batch)), zap.Int("written", stats.Written))
		batch = batch[:0]
		return nil
	}

	for _, res := range results {
		stats.Read += res.read
		stats.Invalid += res.invalid
		for _, c := range res.codes {
			if _, dup := seen[c.Code]; dup {
				stats.Duplicates++
				continue
			}
			seen[c.Code] = struct{}{}
			if i.blocklist.Blocked(c.Code) {
				stats.Blocked++
				i.lg.Info("Skipping blocked code", zap.String("code", c.Code))
				continue
			}
			batch = append(batch, c)
			if len(batch) == i.batchSize {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (i *Importer) parseFile(ctx context.Context, path string) (fileResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileResult{}, err
	}
	defer func() { _ = f.Close() }()

	return i.parse(ctx, path, f)
}

func (i *Importer) parse(ctx context.Context, name string, r io.Reader) (fileResult, error) {
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return fileResult{}, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	cr := csv.NewReader(gz)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	var res fileResult
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, errors.Wrapf(err, "row %d", row)
		}
		if row == 1 && isHeader(rec) {
			continue
		}

		res.read++
		c, err := ParseRecord(rec)
		if err != nil {
			res.invalid++
			i.lg.Warn("Skipping invalid row",
				zap.String("file", name),
				zap.Int("row", row),
				zap.Error(err),
			)
			continue
		}
		res.codes = append(res.codes, c)
	}
}
