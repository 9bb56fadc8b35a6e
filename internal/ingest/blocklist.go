package ingest

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"
)

// Blocklist holds codes that must never be imported, such as leaked or
// retired promotions. Lists can hold tens of millions of codes, so they are
// kept in a bloom filter: a false positive skips a legitimate code, which
// is reported, but a blocked code is never let through.
type Blocklist struct {
	filter *bloom.BloomFilter
}

// BlocklistConfig sizes the filter.
type BlocklistConfig struct {
	// Capacity is the expected number of blocked codes.
	Capacity uint
	// FalsePositiveRate is the accepted probability of skipping a good code.
	FalsePositiveRate float64
}

// LoadBlocklist reads gzip-compressed files with one code per line, all
// files concurrently.
func LoadBlocklist(ctx context.Context, cfg BlocklistConfig, paths ...string) (*Blocklist, error) {
	if cfg.Capacity == 0 {
		cfg.Capacity = 1_000_000
	}
	if cfg.FalsePositiveRate <= 0 {
		cfg.FalsePositiveRate = 0.001
	}

	filters := make([]*bloom.BloomFilter, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			f := bloom.NewWithEstimates(cfg.Capacity, cfg.FalsePositiveRate)
			err := streamGzFile(ctx, path, func(line string) {
				if code := normalizeCode(line); code != "" {
					f.AddString(code)
				}
			})
			if err != nil {
				return errors.Wrapf(err, "load blocklist %s", path)
			}
			filters[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := bloom.NewWithEstimates(cfg.Capacity, cfg.FalsePositiveRate)
	for _, f := range filters {
		if err := merged.Merge(f); err != nil {
			return nil, errors.Wrap(err, "merge filters")
		}
	}
	return &Blocklist{filter: merged}, nil
}

// Blocked reports whether code may be on the list.
func (b *Blocklist) Blocked(code string) bool {
	if b == nil {
		return false
	}
	return b.filter.TestString(normalizeCode(code))
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	return streamGz(ctx, f, fn)
}

func streamGz(ctx context.Context, r io.Reader, fn func(line string)) error {
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}
	return scanner.Err()
}
