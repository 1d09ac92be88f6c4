package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	natsgo "github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/xenking/pueblos-cart/db"
	"github.com/xenking/pueblos-cart/internal/domain/cart"
	"github.com/xenking/pueblos-cart/internal/domain/coupon"
	"github.com/xenking/pueblos-cart/internal/domain/order"
	"github.com/xenking/pueblos-cart/internal/domain/product"
	"github.com/xenking/pueblos-cart/internal/messaging/nats"
	"github.com/xenking/pueblos-cart/internal/storage/file"
	"github.com/xenking/pueblos-cart/internal/storage/memory"
	"github.com/xenking/pueblos-cart/internal/storage/postgres"
	"github.com/xenking/pueblos-cart/internal/storage/resilient"
	"github.com/xenking/pueblos-cart/internal/storage/seed"
	"github.com/xenking/pueblos-cart/pkg/health"
)

// couponStore is a coupon repository that can also list its codes.
type couponStore interface {
	coupon.Repository
	coupon.CodeLister
}

// backends are the stores and connections the service runs on.
type backends struct {
	products  product.Repository
	coupons   couponStore
	orders    order.Repository
	snapshots cart.Storage
	publisher order.Publisher

	checks  []health.Check
	closers []func()
}

// Close releases connections in reverse order of opening.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// probeKey is read by the snapshot storage readiness check.
const probeKey = "_health/probe"

// openBackends connects to PostgreSQL when configured, falls back to the
// built-in catalog otherwise, and picks the cart snapshot storage.
func openBackends(ctx context.Context, lg *zap.Logger, cfg *Config) (_ *backends, rerr error) {
	b := &backends{publisher: order.NopPublisher{}}
	defer func() {
		if rerr != nil {
			b.Close()
		}
	}()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		if pool, err = postgres.NewPool(ctx, cfg.DatabaseURL); err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		b.closers = append(b.closers, pool.Close)

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}
		b.products = postgres.NewProductRepository(pool)
		b.coupons = postgres.NewCouponRepository(pool)
		b.orders = postgres.NewOrderRepository(pool)
		b.checks = append(b.checks, health.Check{
			Name:    "postgres",
			Kind:    health.Readiness,
			Timeout: 5 * time.Second,
			Run:     pool.Ping,
		})
	} else {
		products, rules, err := builtinCatalog(cfg)
		if err != nil {
			return nil, err
		}
		lg.Info("Running without database",
			zap.Int("products", len(products)),
			zap.Int("coupons", len(rules)),
		)
		b.products = memory.NewCatalog(products)
		b.coupons = memory.NewCouponRepository(rules)
		b.orders = memory.NewOrderRepository()
	}

	snapshots, err := openSnapshots(cfg, pool)
	if err != nil {
		return nil, err
	}
	if cfg.Cart.Storage != StorageMemory {
		snapshots = resilient.Wrap(snapshots, cfg.Breaker, lg.Named("breaker"))
	}
	b.snapshots = snapshots
	b.checks = append(b.checks, health.Check{
		Name:    "cart-snapshots",
		Kind:    health.Readiness,
		Timeout: 2 * time.Second,
		Run: func(ctx context.Context) error {
			_, err := snapshots.Load(ctx, probeKey)
			if err != nil && !errors.Is(err, cart.ErrSnapshotNotFound) {
				return err
			}
			return nil
		},
	})

	if cfg.NATS.URL != "" {
		nc, js, err := nats.Connect(cfg.NATS)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = nc.Drain() })

		if err := nats.EnsureStream(ctx, js); err != nil {
			return nil, err
		}
		b.publisher = nats.NewPublisher(js)
		b.checks = append(b.checks, health.Check{
			Name: "nats",
			Kind: health.Readiness,
			Run: func(context.Context) error {
				if s := nc.Status(); s != natsgo.CONNECTED {
					return errors.Errorf("nats connection %s", s)
				}
				return nil
			},
		})
	}

	return b, nil
}

func openSnapshots(cfg *Config, pool *pgxpool.Pool) (cart.Storage, error) {
	switch cfg.Cart.Storage {
	case StoragePostgres:
		return postgres.NewSnapshotStore(pool), nil
	case StorageFile:
		s, err := file.New(cfg.Cart.Dir, file.WithCompression(cfg.Cart.Compress))
		if err != nil {
			return nil, errors.Wrap(err, "open snapshot dir")
		}
		return s, nil
	default:
		return memory.NewSnapshotStore(), nil
	}
}

// builtinCatalog reads the configured catalog and coupon files, or the seed
// data compiled into the binary.
func builtinCatalog(cfg *Config) ([]product.Product, []coupon.Rule, error) {
	var (
		products []product.Product
		rules    []coupon.Rule
		err      error
	)
	if cfg.CatalogFile != "" {
		products, err = seed.ReadProducts(cfg.CatalogFile)
	} else {
		products, err = seed.ParseProducts(db.Products)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "load catalog")
	}

	if cfg.CouponFile != "" {
		rules, err = seed.ReadCoupons(cfg.CouponFile)
	} else {
		rules, err = seed.ParseCoupons(db.Coupons)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "load coupons")
	}
	return products, rules, nil
}
