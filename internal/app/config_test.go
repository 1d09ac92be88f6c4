package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPlatformDefaults(t *testing.T) {
	t.Run("database and port from platform", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/pueblos")
		t.Setenv("PORT", "9090")

		cfg := Config{Addr: defaultAddr, Cart: CartConfig{Storage: StorageAuto}}
		cfg.applyPlatformDefaults()

		assert.Equal(t, "postgres://u:p@db:5432/pueblos", cfg.DatabaseURL)
		assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
		assert.Equal(t, StoragePostgres, cfg.Cart.Storage)
	})

	t.Run("explicit values win", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://platform")
		t.Setenv("PORT", "9090")

		cfg := Config{
			Addr:        "127.0.0.1:7000",
			DatabaseURL: "postgres://explicit",
			Cart:        CartConfig{Storage: StorageFile},
		}
		cfg.applyPlatformDefaults()

		assert.Equal(t, "postgres://explicit", cfg.DatabaseURL)
		assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
		assert.Equal(t, StorageFile, cfg.Cart.Storage)
	})

	t.Run("auto without database is memory", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("PORT", "")

		cfg := Config{Addr: defaultAddr, Cart: CartConfig{Storage: StorageAuto}}
		cfg.applyPlatformDefaults()

		assert.Equal(t, StorageMemory, cfg.Cart.Storage)
		assert.Equal(t, defaultAddr, cfg.Addr)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{Cart: CartConfig{Namespace: "pueblos-cart", Storage: StorageMemory}}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "memory", mutate: func(*Config) {}},
		{name: "file", mutate: func(c *Config) { c.Cart.Storage = StorageFile; c.Cart.Dir = "/var/lib/carts" }},
		{name: "file without dir", mutate: func(c *Config) { c.Cart.Storage = StorageFile }, wantErr: "directory"},
		{name: "postgres without url", mutate: func(c *Config) { c.Cart.Storage = StoragePostgres }, wantErr: "database URL"},
		{name: "postgres", mutate: func(c *Config) { c.Cart.Storage = StoragePostgres; c.DatabaseURL = "postgres://x" }},
		{name: "unknown storage", mutate: func(c *Config) { c.Cart.Storage = "redis" }, wantErr: "unknown cart storage"},
		{name: "empty namespace", mutate: func(c *Config) { c.Cart.Namespace = "" }, wantErr: "namespace"},
		{name: "negative ttl", mutate: func(c *Config) { c.Cart.IdleTTL = -1 }, wantErr: "TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
