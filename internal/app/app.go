package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pueblos-cart/internal/domain/cart"
	"github.com/xenking/pueblos-cart/internal/domain/coupon"
	"github.com/xenking/pueblos-cart/internal/domain/order"
	"github.com/xenking/pueblos-cart/internal/handler"
	"github.com/xenking/pueblos-cart/internal/telemetry"
	"github.com/xenking/pueblos-cart/pkg/health"
	"github.com/xenking/pueblos-cart/pkg/httpmiddleware"
)

// couponFalsePositiveRate is the accepted false positive rate of the coupon
// code prefilter.
const couponFalsePositiveRate = 0.001

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("cart_storage", cfg.Cart.Storage),
	)

	b, err := openBackends(ctx, lg, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	healthSvc := health.New()
	for _, c := range b.checks {
		healthSvc.Register(c)
	}
	healthSvc.Register(health.Check{Name: "goroutines", Run: health.MaxGoroutines(10000)})
	healthSvc.Start(ctx, 10*time.Second)

	// Domain services.
	prefilter, err := coupon.LoadPrefilter(ctx, b.coupons, couponFalsePositiveRate,
		coupon.WithRefreshInterval(cfg.CouponRefresh),
	)
	if err != nil {
		return errors.Wrap(err, "load coupon prefilter")
	}
	orderService := order.NewService(b.products, coupon.NewRepoValidator(prefilter), b.orders, b.publisher)

	observer, err := telemetry.NewCartObserver(m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create cart observer")
	}
	carts := cart.NewManager(
		cart.ManagerConfig{Namespace: cfg.Cart.Namespace, IdleTTL: cfg.Cart.IdleTTL},
		b.snapshots,
		cart.WithObserver(observer),
	)
	carts.StartEviction(ctx)

	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL, Session: cfg.Session},
		b.products,
		carts,
		orderService,
	)

	r := chi.NewRouter()
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	r.Mount("/", h.Router())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(r,
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.Instrument("pueblos-cart", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
			httpmiddleware.CORS(cfg.CORS),
			httpmiddleware.RateLimit(ctx, cfg.RateLimit),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		if ctx.Err() != nil {
			// Shutdown requested: let load balancers notice before draining.
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		lg.Info("Server stopped", zap.Int("resident_carts", carts.Len()))
		return nil
	})

	healthSvc.SetReady(true)
	return g.Wait()
}
