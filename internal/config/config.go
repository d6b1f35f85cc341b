package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`
	Env  string `envconfig:"ENV" default:"development"`

	// DATABASE_URL selects the PostgreSQL backend. When empty the server
	// falls back to a local SQLite file at SQLITE_PATH.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/intake.db"`
	RedisURL    string `envconfig:"REDIS_URL"`

	// Startup connection loop
	ConnectAttempts int           `envconfig:"DB_CONNECT_ATTEMPTS" default:"5"`
	ConnectBackoff  time.Duration `envconfig:"DB_CONNECT_BACKOFF" default:"2s"`

	// Admin gate for the submissions views. Outside development both must
	// be set or the admin endpoints refuse all requests.
	AdminUser         string `envconfig:"ADMIN_USER"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`

	// Origins allowed to call the JSON API. The default lets the form be
	// embedded anywhere; narrow it when only known sites submit.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// Rate limiting
	RateLimitWhitelist []string `envconfig:"RATE_LIMIT_WHITELIST"` // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled   bool     `envconfig:"AUTO_BLOCK_ENABLED" default:"false"`
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}

	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" {
			panic("DATABASE_URL is required in production")
		}
	}

	return &cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UsePostgres reports whether the PostgreSQL backend is configured.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}
