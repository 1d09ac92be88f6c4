// Command coupon-import loads partner campaign code lists into the coupons
// table. Each input file holds one code per line and may be gzip-compressed;
// every imported code gets the rule given on the command line.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pueblos-cart/internal/domain/coupon"
	"github.com/xenking/pueblos-cart/internal/storage/postgres"
)

const batchSize = 500

func main() {
	var (
		databaseURL string
		discount    string
		value       string
		minItems    int
		maxUses     int
		validDays   int
		description string
		dryRun      bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&discount, "type", string(coupon.DiscountPercentage), "discount type: percentage, fixed or free_lowest")
	flag.StringVar(&value, "value", "10", "discount value (percent or euros)")
	flag.IntVar(&minItems, "min-items", 0, "minimum number of units in the order")
	flag.IntVar(&maxUses, "max-uses", 1, "redemptions allowed per code (0 for unlimited)")
	flag.IntVar(&validDays, "valid-days", 90, "days the codes stay valid (0 for no expiry)")
	flag.StringVar(&description, "description", "Partner campaign", "description stored with every code")
	flag.BoolVar(&dryRun, "dry-run", false, "read and validate files without writing")
	flag.Parse()

	if flag.NArg() == 0 {
		slog.Error("usage: coupon-import [flags] FILE...")
		os.Exit(2)
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	v, err := decimal.NewFromString(value)
	if err != nil {
		slog.Error("invalid --value", slog.String("error", err.Error()))
		os.Exit(1)
	}
	tmpl := coupon.Rule{
		DiscountType: coupon.DiscountType(discount),
		Value:        v,
		MinItems:     minItems,
		MaxUses:      maxUses,
		Description:  description,
	}
	now := time.Now().UTC()
	tmpl.ValidFrom = &now
	if validDays > 0 {
		until := now.AddDate(0, 0, validDays)
		tmpl.ValidUntil = &until
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, tmpl, flag.Args(), dryRun); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, databaseURL string, tmpl coupon.Rule, files []string, dryRun bool) error {
	if !tmpl.DiscountType.Valid() {
		return errors.Errorf("unknown discount type %q", tmpl.DiscountType)
	}

	codes, stats, err := collectCodes(ctx, files)
	if err != nil {
		return errors.Wrap(err, "collect codes")
	}
	slog.Info("codes collected",
		slog.Int("unique", len(codes)),
		slog.Int("duplicates", stats.duplicates),
		slog.Int("rejected", stats.rejected),
	)
	if dryRun || len(codes) == 0 {
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewCouponRepository(pool)
	// The code list is read once; every code being imported is new to it.
	prefilter, err := coupon.LoadPrefilter(ctx, repo, 0.001, coupon.WithRefreshInterval(0))
	if err != nil {
		return errors.Wrap(err, "load existing codes")
	}
	codes, skipped, err := dropExisting(ctx, prefilter, codes)
	if err != nil {
		return errors.Wrap(err, "skip existing codes")
	}
	slog.Info("existing codes skipped", slog.Int("count", skipped))

	rules := buildRules(tmpl, codes)
	for start := 0; start < len(rules); start += batchSize {
		end := min(start+batchSize, len(rules))
		if err := repo.Upsert(ctx, rules[start:end]); err != nil {
			return errors.Wrapf(err, "upsert codes %d-%d", start, end)
		}
		slog.Info("write progress", slog.Int("written", end), slog.Int("total", len(rules)))
	}
	return nil
}

// buildRules gives every code a copy of tmpl.
func buildRules(tmpl coupon.Rule, codes []string) []coupon.Rule {
	rules := make([]coupon.Rule, len(codes))
	for i, code := range codes {
		r := tmpl
		r.Code = code
		rules[i] = r
	}
	return rules
}
