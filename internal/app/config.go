package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/pueblos-cart/internal/handler"
	"github.com/xenking/pueblos-cart/internal/messaging/nats"
	"github.com/xenking/pueblos-cart/internal/storage/resilient"
	"github.com/xenking/pueblos-cart/pkg/httpmiddleware"
)

// Snapshot storage backends.
const (
	StorageAuto     = "auto"
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (KART_ prefix), a .env file, flags, or YAML files.
type Config struct {
	Addr          string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL   string        `usage:"PostgreSQL connection URL (KART_DATABASE_URL or DATABASE_URL), empty runs in memory" flag:"database-url"`
	ImageBaseURL  string        `default:"" usage:"Base URL for product images" flag:"image-base-url"`
	CatalogFile   string        `default:"" usage:"Products JSON file used without a database, empty uses the built-in catalog" flag:"catalog-file"`
	CouponFile    string        `default:"" usage:"Coupons JSON file used without a database, empty uses the built-in coupons" flag:"coupon-file"`
	CouponRefresh time.Duration `default:"5s" usage:"Minimum time between coupon code list reloads, 0 never reloads" flag:"coupon-refresh"`
	Cart          CartConfig
	Session       handler.SessionConfig
	Breaker       resilient.Config
	NATS          nats.Config
	RateLimit     httpmiddleware.RateLimitConfig
	CORS          httpmiddleware.CORSConfig
	Graceful      GracefulConfig
}

// CartConfig controls where cart snapshots live and how long carts stay
// resident.
type CartConfig struct {
	Namespace string        `default:"pueblos-cart" usage:"Prefix of every cart snapshot key"`
	Storage   string        `default:"auto" usage:"Snapshot storage: auto, memory, file or postgres"`
	Dir       string        `default:"data/carts" usage:"Snapshot directory for file storage"`
	Compress  bool          `default:"true" usage:"Gzip snapshots in file storage"`
	IdleTTL   time.Duration `default:"30m" usage:"Drop carts from memory after this idle time, 0 keeps them"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads a .env file when present, then configuration from
// environment variables, YAML config files and flags.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "KART",
		Files:     []string{"config.yaml", "/etc/pueblos-cart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the application configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
	if c.Cart.Storage == "" || c.Cart.Storage == StorageAuto {
		c.Cart.Storage = StorageMemory
		if c.DatabaseURL != "" {
			c.Cart.Storage = StoragePostgres
		}
	}
}

func (c *Config) validate() error {
	switch c.Cart.Storage {
	case StorageMemory:
	case StorageFile:
		if c.Cart.Dir == "" {
			return errors.New("cart snapshot directory is required for file storage")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for postgres storage: set KART_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown cart storage %q", c.Cart.Storage)
	}
	if c.Cart.Namespace == "" {
		return errors.New("cart namespace must not be empty")
	}
	if c.Cart.IdleTTL < 0 {
		return errors.New("cart idle TTL must not be negative")
	}
	return nil
}
