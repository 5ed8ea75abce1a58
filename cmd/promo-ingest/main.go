// Command promo-ingest bulk-loads promo codes into the coupons table.
//
// Marketing supplies several large gzipped code lists; a code is considered
// valid only when it appears in at least two lists. The tool streams every
// file once to build per-file bloom filters, then streams again collecting
// codes whose filters agree, and upserts a coupon rule for each valid code.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rima833/menders-cs-sub001/internal/domain/coupon"
	"github.com/rima833/menders-cs-sub001/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	minCodeLen    = 8
	maxCodeLen    = 10
)

// knownRules overrides the default rule for named campaign codes.
var knownRules = map[string]coupon.Rule{
	"WELCOME10": {Kind: coupon.KindPercentage, Value: decimal.NewFromInt(10)},
	"CLEAN15":   {Kind: coupon.KindPercentage, Value: decimal.NewFromInt(15)},
	"HALFCLEAN": {Kind: coupon.KindPercentage, Value: decimal.NewFromInt(50)},
	"NAIRA500":  {Kind: coupon.KindFixed, Value: decimal.NewFromInt(500)},
}

var defaultRule = coupon.Rule{
	Kind:  coupon.KindPercentage,
	Value: decimal.NewFromInt(10),
}

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	files := flag.Args()
	if len(files) < 2 {
		slog.Error("at least two gzipped code list files are required")
		os.Exit(1)
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, files, databaseURL); err != nil {
		slog.Error("promo ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo ingest completed")
}

func run(ctx context.Context, files []string, databaseURL string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))
	filters, err := buildFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: collecting codes present in 2+ files")
	codes, err := collectValidCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "collect valid codes")
	}
	slog.Info("valid codes found", slog.Int("count", len(codes)))

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	coupons := repository.NewCouponRepository(pool)
	for _, code := range codes {
		rule := defaultRule
		if known, ok := knownRules[code]; ok {
			rule = known
		}
		rule.Code = code
		rule.Active = true
		if err := coupons.Upsert(ctx, &rule); err != nil {
			return errors.Wrapf(err, "upsert code %s", code)
		}
	}
	return nil
}

// buildFilters streams every file concurrently into its own bloom filter.
func buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			if err := scanCodes(gctx, path, func(code string) {
				filter.AddString(code)
			}); err != nil {
				return err
			}
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// collectValidCodes re-reads the files and keeps codes whose bloom filters
// report membership in at least two files. Bloom false positives may admit a
// stray code at the configured FPR; that tolerance is acceptable for promo
// ingestion.
func collectValidCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	seen := make(map[string]struct{})
	var codes []string

	for i, path := range files {
		err := scanCodes(ctx, path, func(code string) {
			if _, dup := seen[code]; dup {
				return
			}
			var membership uint
			for j, filter := range filters {
				if j == i || filter.TestString(code) {
					membership |= 1 << j
				}
			}
			if bits.OnesCount(membership) >= 2 {
				seen[code] = struct{}{}
				codes = append(codes, code)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return codes, nil
}

// scanCodes streams a gzipped code list, calling fn for each well-formed code.
func scanCodes(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader %s", path)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		code := scanner.Text()
		if len(code) < minCodeLen || len(code) > maxCodeLen {
			continue
		}
		fn(code)
	}
	return errors.Wrapf(scanner.Err(), "scan %s", path)
}
