package telemetry

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/pueblos-cart/internal/domain/cart"
	"github.com/xenking/pueblos-cart/internal/domain/product"
)

func TestCartObserver_Noop(t *testing.T) {
	obs, err := NewCartObserver(noop.NewMeterProvider())
	require.NoError(t, err)

	ctx := context.Background()
	obs.Mutated(ctx, "k", cart.OpAdd, cart.Snapshot{Items: []cart.LineItem{
		{Product: product.Product{ID: 1}, Quantity: 2},
	}})
	obs.PersistFailed(ctx, "k", errors.New("down"))
	obs.LoadFailed(ctx, "k", errors.New("corrupt"))
}
