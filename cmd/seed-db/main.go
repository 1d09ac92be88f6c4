// Command seed-db migrates the database and loads the pueblos catalog and
// coupon rules into it.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pueblos-cart/db"
	"github.com/xenking/pueblos-cart/internal/domain/coupon"
	"github.com/xenking/pueblos-cart/internal/domain/product"
	"github.com/xenking/pueblos-cart/internal/storage/postgres"
	"github.com/xenking/pueblos-cart/internal/storage/seed"
)

func main() {
	var (
		databaseURL  string
		productsFile string
		couponsFile  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "path to products JSON file (built-in catalog when empty)")
	flag.StringVar(&couponsFile, "coupons-file", "", "path to coupons JSON file (built-in rules when empty)")
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

	if err := run(ctx, databaseURL, productsFile, couponsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, couponsFile string) error {
	products, err := loadProducts(productsFile)
	if err != nil {
		return errors.Wrap(err, "load products")
	}
	rules, err := loadCoupons(couponsFile)
	if err != nil {
		return errors.Wrap(err, "load coupons")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("upserting products", slog.Int("count", len(products)))
		if err := postgres.NewProductRepository(pool).Upsert(gctx, products); err != nil {
			return errors.Wrap(err, "seed products")
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("upserting coupons", slog.Int("count", len(rules)))
		if err := postgres.NewCouponRepository(pool).Upsert(gctx, rules); err != nil {
			return errors.Wrap(err, "seed coupons")
		}
		for _, r := range rules {
			slog.Info("upserted coupon", slog.String("code", r.Code), slog.String("description", r.Description))
		}
		return nil
	})
	return g.Wait()
}

func loadProducts(path string) ([]product.Product, error) {
	if path == "" {
		return seed.ParseProducts(db.Products)
	}
	slog.Info("reading products file", slog.String("path", path))
	return seed.ReadProducts(path)
}

func loadCoupons(path string) ([]coupon.Rule, error) {
	if path == "" {
		return seed.ParseCoupons(db.Coupons)
	}
	slog.Info("reading coupons file", slog.String("path", path))
	return seed.ReadCoupons(path)
}
