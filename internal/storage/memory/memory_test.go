package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pueblos-cart/internal/domain/cart"
	"github.com/xenking/pueblos-cart/internal/domain/coupon"
	"github.com/xenking/pueblos-cart/internal/domain/order"
	"github.com/xenking/pueblos-cart/internal/domain/product"
)

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()

	_, err := s.Load(ctx, "k")
	require.ErrorIs(t, err, cart.ErrSnapshotNotFound)

	data := []byte(`{"version":1,"items":[]}`)
	require.NoError(t, s.Save(ctx, "k", data))
	data[0] = 'X'

	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"items":[]}`, string(got))
	assert.Equal(t, 1, s.Len())

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, s.Save(canceled, "k", nil), context.Canceled)
}

func TestSnapshotStore_WithCartStore(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()
	p := product.Product{ID: 4, Name: "Santillana del Mar", Price: "31.75"}

	c := cart.Open(ctx, "pueblos-cart/abc", s)
	require.NoError(t, c.Add(ctx, p, 2))

	reopened := cart.Open(ctx, "pueblos-cart/abc", s)
	assert.Equal(t, 2, reopened.ItemCount())
	assert.Equal(t, "63.5", reopened.Total().String())
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog([]product.Product{
		{ID: 3, Name: "Frigiliana"},
		{ID: 1, Name: "Albarracín"},
	})

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)

	p, err := c.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Frigiliana", p.Name)

	_, err = c.GetByID(ctx, 99)
	require.ErrorIs(t, err, product.ErrNotFound)

	got, err := c.GetByIDs(ctx, []int64{3, 99, 1})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCouponRepository(t *testing.T) {
	ctx := context.Background()
	r := NewCouponRepository([]coupon.Rule{
		{Code: "ruta5", DiscountType: coupon.DiscountFixed, MaxUses: 1},
	})

	rule, err := r.FindByCode(ctx, "Ruta5")
	require.NoError(t, err)
	assert.Equal(t, "RUTA5", rule.Code)

	_, err = r.FindByCode(ctx, "nope")
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)

	require.NoError(t, r.IncrementUses(ctx, "RUTA5"))
	require.ErrorIs(t, r.IncrementUses(ctx, "RUTA5"), coupon.ErrCouponUsageLimitReached)

	rule, err = r.FindByCode(ctx, "RUTA5")
	require.NoError(t, err)
	assert.Equal(t, 1, rule.Uses)

	require.NoError(t, r.DecrementUses(ctx, "ruta5"))
	require.NoError(t, r.DecrementUses(ctx, "RUTA5"))
	rule, err = r.FindByCode(ctx, "RUTA5")
	require.NoError(t, err)
	assert.Equal(t, 0, rule.Uses, "uses never go below zero")
	require.NoError(t, r.IncrementUses(ctx, "RUTA5"))
	require.ErrorIs(t, r.DecrementUses(ctx, "nope"), coupon.ErrInvalidCoupon)

	codes, err := r.ListCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"RUTA5"}, codes)
}

func TestOrderRepository(t *testing.T) {
	r := NewOrderRepository()
	o := &order.Order{ID: "o1", Items: []order.Item{{ProductID: 1, Quantity: 2}}}

	require.NoError(t, r.Create(context.Background(), o))
	o.Items[0].Quantity = 9

	orders := r.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
}
