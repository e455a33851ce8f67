package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"candlebliss-api/internal/pricing"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port string `envconfig:"PORT" default:"8080"`
	Env  string `envconfig:"ENV" default:"development"`

	// CandleBliss backend
	APIBaseURL      string        `envconfig:"API_BASE_URL" default:"http://localhost:3000"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`

	// Storage
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Session tokens are issued by the backend; the secret is optional
	JWTSecret string `envconfig:"JWT_SECRET"`

	// Pricing
	DiscountMode     string   `envconfig:"DISCOUNT_MODE" default:"percent"`
	CategoryKeywords []string `envconfig:"CATEGORY_KEYWORDS" default:"nến,nen,candle"`
	FallbackSize     int      `envconfig:"FALLBACK_SIZE" default:"6"`
	CandleCategoryID int64    `envconfig:"CANDLE_CATEGORY_ID" default:"4"`

	// Catalog cache and warmup
	CatalogCacheTTL     time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`
	CatalogWarmInterval string        `envconfig:"CATALOG_WARM_INTERVAL" default:"@every 5m"`
	FanOutLimit         int           `envconfig:"FANOUT_LIMIT" default:"8"`

	// SVIP
	SVIPOrderThreshold int           `envconfig:"SVIP_ORDER_THRESHOLD" default:"20"`
	SVIPCacheTTL       time.Duration `envconfig:"SVIP_CACHE_TTL" default:"24h"`

	// HTTP
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	FrontendURL        string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
}

// Load loads configuration from .env and environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot
func (c *Config) Validate() error {
	if _, err := pricing.ParseDiscountMode(c.DiscountMode); err != nil {
		return fmt.Errorf("invalid DISCOUNT_MODE: %w", err)
	}
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("API_BASE_URL must be set")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	if c.SVIPOrderThreshold <= 0 {
		return fmt.Errorf("SVIP_ORDER_THRESHOLD must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Discount returns the parsed discount mode
func (c *Config) Discount() pricing.DiscountMode {
	mode, err := pricing.ParseDiscountMode(c.DiscountMode)
	if err != nil {
		return pricing.ModePercent
	}
	return mode
}

// FilterOptions returns the category filter settings
func (c *Config) FilterOptions() pricing.FilterOptions {
	return pricing.FilterOptions{
		Keywords:     c.CategoryKeywords,
		FallbackSize: c.FallbackSize,
	}
}

// BaseURL returns the backend base URL without a trailing slash
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.APIBaseURL, "/")
}

// AsynqRedis returns the Redis connection options of the job queue
func (c *Config) AsynqRedis() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
