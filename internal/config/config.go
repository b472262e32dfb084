package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// WebhookSecretPlaceholder is the default value shipped in the Partners
// Portal examples. A secret equal to this value counts as "not configured"
// and disables signature verification for local development.
const WebhookSecretPlaceholder = "your-webhook-secret-from-partners-portal"

// Rate limit store type constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// Webhook settings
	WebhookSecret string
	// SignatureRequiredOverride forces verification on even when the secret
	// looks unconfigured ("always"), or off entirely ("never"). Empty means
	// auto: verify whenever a real secret is present.
	SignatureRequiredOverride string

	// Token query API
	CallerSecret string // shared secret for the raw-token endpoint

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string
	DBInitTimeout  time.Duration

	// Upstream Salla Admin API
	SallaAPIBaseURL string
	SallaAPITimeout time.Duration
	SallaAPIRetries int
	SallaAPIPerPage int

	// Spreadsheet data cache
	DataCacheTTL time.Duration

	// Metrics
	MetricsEnabled bool
	MetricsToken   string

	// Rate limiting
	RateLimitEnabled           bool
	RateLimitStore             string // "memory" or "redis"
	WebhookRequestsPerMinute   int
	RawTokenRequestsPerMinute  int
	RateLimitRedisAddr         string
	RateLimitRedisPassword     string
	RateLimitRedisDB           int
	RateLimitCleanupInterval   time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "tokens.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":3002"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:3002"),
		IsProduction: getEnvBool("IS_PRODUCTION", false),

		WebhookSecret:             getEnv("SALLA_WEBHOOK_SECRET", WebhookSecretPlaceholder),
		SignatureRequiredOverride: getEnv("SIGNATURE_VERIFICATION", ""),

		CallerSecret: getEnv("CALLER_SECRET", ""),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),

		SallaAPIBaseURL: getEnv("SALLA_API_BASE_URL", "https://api.salla.dev/admin/v2"),
		SallaAPITimeout: getEnvDuration("SALLA_API_TIMEOUT", 15*time.Second),
		SallaAPIRetries: getEnvInt("SALLA_API_MAX_RETRIES", 2),
		SallaAPIPerPage: getEnvInt("SALLA_API_PER_PAGE", 20),

		DataCacheTTL: getEnvDuration("DATA_CACHE_TTL", 60*time.Second),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		RateLimitEnabled:          getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitStore:            getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		WebhookRequestsPerMinute:  getEnvInt("WEBHOOK_REQUESTS_PER_MINUTE", 120),
		RawTokenRequestsPerMinute: getEnvInt("RAW_TOKEN_REQUESTS_PER_MINUTE", 30),
		RateLimitRedisAddr:        getEnv("RATE_LIMIT_REDIS_ADDR", "localhost:6379"),
		RateLimitRedisPassword:    getEnv("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:          getEnvInt("RATE_LIMIT_REDIS_DB", 0),
		RateLimitCleanupInterval:  getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
	}
}

// SignatureRequired reports whether inbound webhook signatures must verify.
// Auto mode trusts requests only while no real secret is configured; the
// override pins the behavior regardless of the secret value.
func (c *Config) SignatureRequired() bool {
	switch c.SignatureRequiredOverride {
	case "always":
		return true
	case "never":
		return false
	default:
		return c.WebhookSecretConfigured()
	}
}

// WebhookSecretConfigured reports whether a real (non-placeholder) webhook
// secret is set.
func (c *Config) WebhookSecretConfigured() bool {
	return c.WebhookSecret != "" && c.WebhookSecret != WebhookSecretPlaceholder
}

// Validate checks configuration consistency at startup.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER value: %q (must be: sqlite, postgres)", c.DatabaseDriver)
	}
	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required when DATABASE_DRIVER=postgres")
	}

	switch c.SignatureRequiredOverride {
	case "", "always", "never":
	default:
		return fmt.Errorf(
			"invalid SIGNATURE_VERIFICATION value: %q (must be: always, never, or unset)",
			c.SignatureRequiredOverride,
		)
	}
	if c.SignatureRequiredOverride == "always" && c.WebhookSecret == "" {
		return errors.New("SALLA_WEBHOOK_SECRET is required when SIGNATURE_VERIFICATION=always")
	}

	switch c.RateLimitStore {
	case RateLimitStoreMemory, RateLimitStoreRedis:
	default:
		return fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be: memory, redis)",
			c.RateLimitStore,
		)
	}

	if !strings.HasPrefix(c.SallaAPIBaseURL, "http://") &&
		!strings.HasPrefix(c.SallaAPIBaseURL, "https://") {
		return fmt.Errorf("invalid SALLA_API_BASE_URL value: %q", c.SallaAPIBaseURL)
	}

	if c.SallaAPITimeout <= 0 {
		return errors.New("SALLA_API_TIMEOUT must be positive")
	}
	if c.DataCacheTTL < 0 {
		return errors.New("DATA_CACHE_TTL must not be negative")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
