// Package telemetry holds the otel instruments the service records.
package telemetry

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/pueblos-cart/internal/domain/cart"
)

var _ cart.Observer = (*CartObserver)(nil)

// CartObserver counts cart mutations and snapshot storage failures.
type CartObserver struct {
	mutations     metric.Int64Counter
	persistErrors metric.Int64Counter
	loadErrors    metric.Int64Counter
	units         metric.Int64Histogram
}

// NewCartObserver creates the cart instruments on the given meter provider.
func NewCartObserver(mp metric.MeterProvider) (*CartObserver, error) {
	meter := mp.Meter("github.com/xenking/pueblos-cart/cart")

	mutations, err := meter.Int64Counter("cart.mutations",
		metric.WithDescription("Cart state changes by operation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "cart.mutations")
	}
	persistErrors, err := meter.Int64Counter("cart.snapshot.persist_errors",
		metric.WithDescription("Cart snapshots that could not be written"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "cart.snapshot.persist_errors")
	}
	loadErrors, err := meter.Int64Counter("cart.snapshot.load_errors",
		metric.WithDescription("Cart snapshots that could not be read or decoded"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "cart.snapshot.load_errors")
	}
	units, err := meter.Int64Histogram("cart.units",
		metric.WithDescription("Units in a cart after a change"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "cart.units")
	}

	return &CartObserver{
		mutations:     mutations,
		persistErrors: persistErrors,
		loadErrors:    loadErrors,
		units:         units,
	}, nil
}

// Mutated implements cart.Observer.
func (o *CartObserver) Mutated(ctx context.Context, _ string, op cart.Op, snap cart.Snapshot) {
	o.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", string(op))))

	units := 0
	for _, it := range snap.Items {
		units += it.Quantity
	}
	o.units.Record(ctx, int64(units))
}

// PersistFailed implements cart.Observer.
func (o *CartObserver) PersistFailed(ctx context.Context, _ string, _ error) {
	o.persistErrors.Add(ctx, 1)
}

// LoadFailed implements cart.Observer.
func (o *CartObserver) LoadFailed(ctx context.Context, _ string, _ error) {
	o.loadErrors.Add(ctx, 1)
}
