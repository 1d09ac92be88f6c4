package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pueblos-cart/internal/domain/coupon"
	"github.com/xenking/pueblos-cart/internal/storage/memory"
)

// --- Helpers ---

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeGzip(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

// --- Tests ---

func TestScanCodes(t *testing.T) {
	input := strings.Join([]string{
		"# campaign: ruta del norte",
		"norte2026",
		"",
		"  CUDILLERO1 ",
		"abc",
		"BAD-CODE",
		strings.Repeat("X", maxCodeLen+1),
	}, "\n")

	codes, rejected, err := scanCodes(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"NORTE2026", "CUDILLERO1"}, codes)
	assert.Equal(t, 3, rejected)
}

func TestScanCodes_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := scanCodes(ctx, strings.NewReader("NORTE2026\n"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCollectCodes(t *testing.T) {
	dir := t.TempDir()
	plain := writeFile(t, dir, "asturias.txt", "NORTE2026\nCUDILLERO1\nnope!\n")
	gz := writeGzip(t, dir, "aragon.txt.gz", "ALBARRACIN\nnorte2026\n")

	codes, stats, err := collectCodes(context.Background(), []string{plain, gz})
	require.NoError(t, err)
	assert.Equal(t, []string{"NORTE2026", "CUDILLERO1", "ALBARRACIN"}, codes)
	assert.Equal(t, 1, stats.duplicates)
	assert.Equal(t, 1, stats.rejected)
}

func TestCollectCodes_MissingFile(t *testing.T) {
	_, _, err := collectCodes(context.Background(), []string{filepath.Join(t.TempDir(), "none.txt")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none.txt")
}

func TestCollectCodes_CorruptGzip(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.gz", "not gzip at all")

	_, _, err := collectCodes(context.Background(), []string{path})
	require.Error(t, err)
}

func TestDropExisting(t *testing.T) {
	repo := memory.NewCouponRepository([]coupon.Rule{
		{Code: "PUEBLOS10", DiscountType: coupon.DiscountPercentage},
	})
	prefilter, err := coupon.LoadPrefilter(context.Background(), repo, 0.001, coupon.WithRefreshInterval(0))
	require.NoError(t, err)

	kept, skipped, err := dropExisting(context.Background(), prefilter, []string{"PUEBLOS10", "NORTE2026"})
	require.NoError(t, err)
	assert.Equal(t, []string{"NORTE2026"}, kept)
	assert.Equal(t, 1, skipped)
}

func TestBuildRules(t *testing.T) {
	tmpl := coupon.Rule{DiscountType: coupon.DiscountFixed, MinItems: 2, MaxUses: 1}

	rules := buildRules(tmpl, []string{"NORTE2026", "ALBARRACIN"})
	require.Len(t, rules, 2)
	assert.Equal(t, "NORTE2026", rules[0].Code)
	assert.Equal(t, "ALBARRACIN", rules[1].Code)
	assert.Equal(t, coupon.DiscountFixed, rules[1].DiscountType)
	assert.Equal(t, 2, rules[1].MinItems)
	assert.Empty(t, tmpl.Code)
}
