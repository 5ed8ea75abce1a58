package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration, loadable from
// environment variables (MENDERS_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (MENDERS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Pricing     PricingConfig
	Cart        CartConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// PricingConfig holds the externally configurable pricing policy knobs.
type PricingConfig struct {
	// VATRate is the VAT percentage applied to (subtotal - discount).
	VATRate string `default:"7.5" usage:"VAT rate in percent" flag:"vat-rate"`
	// BaseShippingFee is charged once per distinct vendor in a cart or order.
	BaseShippingFee string `default:"500" usage:"Base shipping fee per vendor" flag:"base-shipping-fee"`
	// CommissionRate is the marketplace commission percentage on each
	// vendor's fulfillment subtotal.
	CommissionRate string `default:"10" usage:"Commission rate in percent" flag:"commission-rate"`
	// OrderNumberPrefix prefixes generated order numbers.
	OrderNumberPrefix string `default:"MND" usage:"Order number prefix" flag:"order-number-prefix"`
}

// VAT parses the configured VAT rate.
func (p PricingConfig) VAT() (decimal.Decimal, error) {
	return decimal.NewFromString(p.VATRate)
}

// ShippingFee parses the configured base shipping fee.
func (p PricingConfig) ShippingFee() (decimal.Decimal, error) {
	return decimal.NewFromString(p.BaseShippingFee)
}

// Commission parses the configured commission rate.
func (p PricingConfig) Commission() (decimal.Decimal, error) {
	return decimal.NewFromString(p.CommissionRate)
}

// CartConfig controls the abandoned-cart sweeper.
type CartConfig struct {
	SweepInterval time.Duration `default:"1h" usage:"Expired cart sweep interval" flag:"cart-sweep-interval"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "MENDERS",
		Files:     []string{"config.yaml", "/etc/menders/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set MENDERS_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT onto the MENDERS_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
