package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "STOREFRONT"
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
	mockStoreMarker   = "mock.shop"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Shopify   ShopifyConfig   `mapstructure:"shopify"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Cart      CartConfig      `mapstructure:"cart"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ShopifyConfig holds Storefront API configuration
type ShopifyConfig struct {
	StoreDomain string        `mapstructure:"store_domain"`
	AccessToken string        `mapstructure:"access_token"`
	APIVersion  string        `mapstructure:"api_version"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// IsMock reports whether the configured store is the public mock storefront
func (c ShopifyConfig) IsMock() bool {
	return strings.Contains(c.StoreDomain, mockStoreMarker)
}

// CatalogConfig selects where products come from
type CatalogConfig struct {
	Source        string `mapstructure:"source"` // "shopify" or "demo"
	FetchSize     int    `mapstructure:"fetch_size"`
	ProductsLimit int    `mapstructure:"products_limit"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	CatalogTTL  time.Duration `mapstructure:"catalog_ttl"`
	CategoryTTL time.Duration `mapstructure:"category_ttl"`
}

// CartConfig holds cart persistence configuration
type CartConfig struct {
	DBPath    string `mapstructure:"db_path"` // empty keeps carts in memory
	Namespace string `mapstructure:"namespace"`
}

// RateLimitConfig holds outbound rate limiting configuration
type RateLimitConfig struct {
	ShopifyRPS   float64 `mapstructure:"shopify_rps"`
	ShopifyBurst int     `mapstructure:"shopify_burst"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from defaults, an optional config file, a .env
// file and STOREFRONT_* environment variables, in increasing precedence.
// args are the command line arguments without the program name.
func Load(args []string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	configFile, err := configFilePath(args)
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/storefront/")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// configFilePath returns the explicit config file from --config or
// STOREFRONT_CONFIG_FILE, the flag taking precedence
func configFilePath(args []string) (string, error) {
	flags := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	path := flags.String("config", "", "path to a config file")
	if err := flags.Parse(args); err != nil {
		return "", fmt.Errorf("parse flags: %w", err)
	}
	if *path != "" {
		return *path, nil
	}
	return os.Getenv(configFileEnvName), nil
}

// loadEnvFile loads .env from the working directory; a missing file is not an error.
// Variables already set in the environment win.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// Storefront API defaults; domain and token are registered so env vars bind
	v.SetDefault("shopify.store_domain", "")
	v.SetDefault("shopify.access_token", "")
	v.SetDefault("shopify.api_version", "2025-10")
	v.SetDefault("shopify.timeout", "30s")

	// Catalog defaults
	v.SetDefault("catalog.source", "shopify")
	v.SetDefault("catalog.fetch_size", 50)
	v.SetDefault("catalog.products_limit", 250)

	// Cache defaults
	v.SetDefault("cache.catalog_ttl", "1m")
	v.SetDefault("cache.category_ttl", "5m")

	// Cart defaults
	v.SetDefault("cart.db_path", "./data/cart")
	v.SetDefault("cart.namespace", "cart-storage")

	// Rate limit defaults
	v.SetDefault("ratelimit.shopify_rps", 2)
	v.SetDefault("ratelimit.shopify_burst", 10)

	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Catalog.Source {
	case "shopify":
		if config.Shopify.StoreDomain == "" {
			return fmt.Errorf("store domain is required (set STOREFRONT_SHOPIFY_STORE_DOMAIN)")
		}
		if config.Shopify.AccessToken == "" && !config.Shopify.IsMock() {
			return fmt.Errorf("access token is required for %s (set STOREFRONT_SHOPIFY_ACCESS_TOKEN)", config.Shopify.StoreDomain)
		}
		if config.Shopify.APIVersion == "" {
			return fmt.Errorf("storefront API version is required")
		}
	case "demo":
	default:
		return fmt.Errorf("catalog source must be 'shopify' or 'demo', got: %s", config.Catalog.Source)
	}

	if config.Cart.Namespace == "" {
		return fmt.Errorf("cart namespace must not be empty")
	}

	if config.RateLimit.ShopifyRPS <= 0 {
		return fmt.Errorf("shopify rate limit must be positive, got: %v", config.RateLimit.ShopifyRPS)
	}

	return nil
}
