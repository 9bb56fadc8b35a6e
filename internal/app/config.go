package app

import (
	"io/fs"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-checkout/internal/cache"
	"github.com/xenking/storefront-checkout/internal/events"
)

const defaultTaxRate = "0.15"

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, a .env file or YAML config
// files.
type Config struct {
	Addr            string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL     string        `usage:"PostgreSQL connection URL (STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	TaxRate         string        `default:"0.15" usage:"VAT rate included in product prices (STORE_TAX_RATE or VAT_RATE)" flag:"tax-rate"`
	CheckoutTimeout time.Duration `default:"10s" usage:"Upper bound for a single checkout" flag:"checkout-timeout"`
	Redis           cache.Config
	Kafka           events.Config
	Graceful        GracefulConfig
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// VATRate parses TaxRate. Rates must be positive.
func (c *Config) VATRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse tax rate %q", c.TaxRate)
	}
	if !rate.IsPositive() {
		return decimal.Zero, errors.Errorf("tax rate %s must be positive", c.TaxRate)
	}
	return rate, nil
}

// LoadConfig loads a .env file when present, then configuration from
// environment variables, YAML config files and flags.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}
	return loadConfig(os.Args[1:])
}

func loadConfig(args []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		Args:      args,
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set STORE_DATABASE_URL or DATABASE_URL")
	}

	if _, err := cfg.VATRate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyPlatformDefaults maps conventional environment variables (DATABASE_URL,
// PORT, VAT_RATE) onto the STORE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
	if v := os.Getenv("VAT_RATE"); v != "" && c.TaxRate == defaultTaxRate {
		c.TaxRate = v
	}
}
