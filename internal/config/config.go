package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Cart storage backends.
const (
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Public origin the payment provider redirects back to.
	PublicBaseURL string `env:"STOREFRONT_PUBLIC_URL" envDefault:"http://localhost:3000"`

	// Cart storage
	CartStorage string `env:"CART_STORAGE" envDefault:"redis"`
	CartTTL     int    `env:"CART_TTL_HOURS" envDefault:"168"`

	// In-memory cart lifetimes
	CartIdleMinutes      int `env:"CART_IDLE_MINUTES" envDefault:"30"`
	CartSweepSeconds     int `env:"CART_SWEEP_SECONDS" envDefault:"60"`
	CartLoadTimeoutMs    int `env:"CART_LOAD_TIMEOUT_MS" envDefault:"3000"`
	CartPurgeIntervalMin int `env:"CART_PURGE_INTERVAL_MINUTES" envDefault:"60"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront"`
	PostgresDB   string `env:"STOREFRONT_DB_NAME" envDefault:"storefront"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns int32 `env:"DB_MIN_CONNS" envDefault:"2"`

	// Backend service
	BackendURL       string `env:"BACKEND_URL" envDefault:"http://localhost:8000"`
	BackendTimeoutMs int    `env:"BACKEND_TIMEOUT_MS" envDefault:"10000"`

	// Circuit breaker settings for backend calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Caller identity
	JWTSecret string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`

	// Kafka. Events are disabled when no broker is configured.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// CORS. Development accepts any origin regardless.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"100"`

	// Public cache lifetime of catalog reads
	CatalogCacheSeconds int `env:"CATALOG_CACHE_SECONDS" envDefault:"30"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.CartStorage {
	case StorageRedis, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("CART_STORAGE must be one of redis, postgres, memory, got %q", c.CartStorage)
	}
	if c.CartTTL < 1 {
		return fmt.Errorf("CART_TTL_HOURS must be positive, got %d", c.CartTTL)
	}
	if c.CartIdleMinutes < 1 || c.CartSweepSeconds < 1 || c.CartLoadTimeoutMs < 1 {
		return fmt.Errorf("cart lifetimes must be positive")
	}
	if c.CartStorage == StoragePostgres && c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.CartStorage == StorageMemory && c.Environment == "production" {
		return fmt.Errorf("CART_STORAGE=memory is not allowed in production")
	}
	for name, rawURL := range map[string]string{
		"BACKEND_URL":           c.BackendURL,
		"STOREFRONT_PUBLIC_URL": c.PublicBaseURL,
	} {
		if rawURL == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}
	if c.BackendTimeoutMs < 1 {
		return fmt.Errorf("BACKEND_TIMEOUT_MS must be positive, got %d", c.BackendTimeoutMs)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0, 1], got %f", c.CBFailureRatio)
	}
	if c.Environment != "development" && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be changed from default value in %s environment", c.Environment)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" {
		for _, o := range c.CORSAllowedOrigins {
			if strings.TrimSpace(o) == "*" {
				return fmt.Errorf("CORS_ALLOWED_ORIGINS must list exact origins in production")
			}
		}
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// CartTTLDuration is how long an untouched cart survives in storage.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// BackendTimeout bounds a single backend request.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutMs) * time.Millisecond
}

// EventsEnabled reports whether a Kafka broker is configured.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// SecureCookies reports whether the device cookie must be HTTPS-only.
func (c *Config) SecureCookies() bool {
	return c.Environment == "production"
}
