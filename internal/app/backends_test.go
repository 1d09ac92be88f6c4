package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/pueblos-cart/internal/domain/order"
	"github.com/xenking/pueblos-cart/internal/storage/file"
	"github.com/xenking/pueblos-cart/internal/storage/memory"
	"github.com/xenking/pueblos-cart/internal/storage/resilient"
)

func checkNames(b *backends) []string {
	names := make([]string, len(b.checks))
	for i, c := range b.checks {
		names[i] = c.Name
	}
	return names
}

func TestOpenBackends_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{Cart: CartConfig{Namespace: "pueblos-cart", Storage: StorageMemory}}

	b, err := openBackends(ctx, zap.NewNop(), cfg)
	require.NoError(t, err)
	t.Cleanup(b.Close)

	assert.IsType(t, &memory.SnapshotStore{}, b.snapshots)
	assert.IsType(t, order.NopPublisher{}, b.publisher)
	assert.Equal(t, []string{"cart-snapshots"}, checkNames(b))

	products, err := b.products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 10)

	rule, err := b.coupons.FindByCode(ctx, "pueblos10")
	require.NoError(t, err)
	assert.Equal(t, "PUEBLOS10", rule.Code)

	// Snapshot storage is ready even before any cart was written.
	require.NoError(t, b.checks[0].Run(ctx))
}

func TestOpenBackends_File(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "carts")
	cfg := &Config{Cart: CartConfig{Namespace: "pueblos-cart", Storage: StorageFile, Dir: dir, Compress: true}}

	b, err := openBackends(context.Background(), zap.NewNop(), cfg)
	require.NoError(t, err)
	t.Cleanup(b.Close)

	assert.IsType(t, &resilient.Storage{}, b.snapshots)
	assert.DirExists(t, dir)
	require.NoError(t, b.checks[0].Run(context.Background()))
}

func TestOpenSnapshots_File(t *testing.T) {
	cfg := &Config{Cart: CartConfig{Storage: StorageFile, Dir: t.TempDir()}}

	s, err := openSnapshots(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &file.SnapshotStore{}, s)
}

func TestBuiltinCatalog(t *testing.T) {
	t.Run("embedded seed", func(t *testing.T) {
		products, rules, err := builtinCatalog(&Config{})
		require.NoError(t, err)
		assert.Len(t, products, 10)
		assert.Len(t, rules, 4)
	})

	t.Run("files", func(t *testing.T) {
		dir := t.TempDir()
		productsFile := filepath.Join(dir, "products.json")
		couponsFile := filepath.Join(dir, "coupons.json")
		require.NoError(t, os.WriteFile(productsFile,
			[]byte(`[{"id": 7, "name": "Trujillo", "price": "19.95"}]`), 0o600))
		require.NoError(t, os.WriteFile(couponsFile,
			[]byte(`[{"code": "ruta5", "discount_type": "fixed", "value": "5"}]`), 0o600))

		products, rules, err := builtinCatalog(&Config{CatalogFile: productsFile, CouponFile: couponsFile})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, int64(7), products[0].ID)
		require.Len(t, rules, 1)
		assert.Equal(t, "RUTA5", rules[0].Code)
	})

	t.Run("missing catalog file", func(t *testing.T) {
		_, _, err := builtinCatalog(&Config{CatalogFile: filepath.Join(t.TempDir(), "none.json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load catalog")
	})
}
