// Command seed-db populates a development database with a small catalog of
// vendors, products, and promo coupons.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/rima833/menders-cs-sub001/internal/domain/coupon"
	"github.com/rima833/menders-cs-sub001/internal/repository"
)

const upsertProductSQL = `INSERT INTO products (id, vendor_id, name, price, category)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE
	SET vendor_id = EXCLUDED.vendor_id, name = EXCLUDED.name,
		price = EXCLUDED.price, category = EXCLUDED.category`

type seedProduct struct {
	id       string
	vendorID string
	name     string
	price    string
	category string
}

var products = []seedProduct{
	{"prod-broom-001", "vendor-lagos-home", "Soft Bristle Broom", "1500.00", "cleaning"},
	{"prod-mop-001", "vendor-lagos-home", "Microfibre Flat Mop", "4200.00", "cleaning"},
	{"prod-soap-001", "vendor-lagos-home", "Liquid Soap 5L", "3500.00", "cleaning"},
	{"prod-vac-001", "vendor-abuja-tools", "Handheld Vacuum", "28500.00", "appliances"},
	{"prod-glove-001", "vendor-abuja-tools", "Rubber Gloves (Pair)", "800.00", "cleaning"},
	{"prod-deep-001", "vendor-menders-svc", "Deep Clean Session (3BR)", "45000.00", "services"},
	{"prod-move-001", "vendor-menders-svc", "Move-out Clean Session", "60000.00", "services"},
}

var coupons = []coupon.Rule{
	{Code: "WELCOME10", Kind: coupon.KindPercentage, Value: decimal.NewFromInt(10), Active: true},
	{Code: "CLEAN15", Kind: coupon.KindPercentage, Value: decimal.NewFromInt(15), Active: true},
	{Code: "NAIRA500", Kind: coupon.KindFixed, Value: decimal.NewFromInt(500), Active: true},
}

func main() {
	var databaseURL string
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

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed",
		slog.Int("products", len(products)),
		slog.Int("coupons", len(coupons)),
	)
}

func run(ctx context.Context, databaseURL string) error {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	for _, p := range products {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			return errors.Wrapf(err, "parse price for %s", p.id)
		}
		if _, err := pool.Exec(ctx, upsertProductSQL, p.id, p.vendorID, p.name, price, p.category); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.id)
		}
	}

	couponRepo := repository.NewCouponRepository(pool)
	for i := range coupons {
		if err := couponRepo.Upsert(ctx, &coupons[i]); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", coupons[i].Code)
		}
	}
	return nil
}
