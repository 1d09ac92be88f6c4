package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pueblos-cart/internal/domain/cart"
	"github.com/xenking/pueblos-cart/internal/domain/product"
)

func TestSnapshotStore(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "gzip"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s, err := New(t.TempDir(), WithCompression(compress))
			require.NoError(t, err)

			_, err = s.Load(ctx, "pueblos-cart/s1")
			require.ErrorIs(t, err, cart.ErrSnapshotNotFound)

			payload := []byte(`{"version":3,"items":[]}`)
			require.NoError(t, s.Save(ctx, "pueblos-cart/s1", payload))

			got, err := s.Load(ctx, "pueblos-cart/s1")
			require.NoError(t, err)
			assert.Equal(t, string(payload), string(got))

			require.NoError(t, s.Save(ctx, "pueblos-cart/s1", []byte(`{"version":4,"items":[]}`)))
			got, err = s.Load(ctx, "pueblos-cart/s1")
			require.NoError(t, err)
			assert.Contains(t, string(got), `"version":4`)
		})
	}
}

func TestSnapshotStore_KeyEscaping(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "ns/../../etc", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind and nothing written outside dir")
	assert.False(t, strings.Contains(entries[0].Name(), "/"))
	assert.Equal(t, dir, filepath.Dir(s.Path("ns/../../etc")))
}

func TestSnapshotStore_Canceled(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Save(ctx, "k", []byte("{}")), context.Canceled)
	_, err = s.Load(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}

func TestSnapshotStore_CorruptGzip(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir(), WithCompression(true))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path("k"), []byte("not gzip"), 0o600))

	_, err = s.Load(ctx, "k")
	require.Error(t, err)

	c := cart.Open(ctx, "k", s)
	assert.Zero(t, c.Len(), "unreadable snapshot starts an empty cart")
}

func TestSnapshotStore_CartSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := product.Product{ID: 9, Name: "Valldemossa", Price: "42"}

	s1, err := New(dir, WithCompression(true))
	require.NoError(t, err)
	c := cart.Open(ctx, "pueblos-cart/s9", s1)
	require.NoError(t, c.Add(ctx, p, 1))
	require.NoError(t, c.Add(ctx, p, 1))

	s2, err := New(dir, WithCompression(true))
	require.NoError(t, err)
	restored := cart.Open(ctx, "pueblos-cart/s9", s2)
	assert.Equal(t, 2, restored.ItemCount())
	assert.Equal(t, uint64(2), restored.Version())
}
