// Package config loads process configuration from the environment, with an
// optional .env file underneath.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is accepted only in development.
const DefaultJWTSecret = "change-me-in-production"

// Config holds application configuration.
type Config struct {
	App         AppConfig
	DB          DBConfig
	JWT         JWTConfig
	HTTP        HTTPConfig
	Idempotency IdempotencyConfig
	Worker      WorkerConfig

	// BranchPolicy is the CEL expression a token must satisfy to act on a branch.
	BranchPolicy string
}

// AppConfig is the general application section.
type AppConfig struct {
	Env      string
	LogLevel string

	// CompanyName is printed on contact statements.
	CompanyName string
}

// IsDevelopment reports whether the process runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// DBConfig configures PostgreSQL.
type DBConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration
	MigrateOnStart   bool
}

// JWTConfig configures access tokens.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Port string

	// RateLimit uses the limiter format, e.g. "100-M".
	RateLimit          string
	LoginRateLimit     string
	CORSAllowedOrigins []string
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return ":" + c.Port
}

// IdempotencyConfig configures X-Idempotency-Key handling.
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// WorkerConfig configures the background worker.
type WorkerConfig struct {
	PollInterval    time.Duration
	CleanupInterval time.Duration
	BatchSize       int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("COMPANY_NAME", "hesap")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "30s")
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "hesap")
	v.SetDefault("JWT_TTL", "15m")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("LOGIN_RATE_LIMIT", "5-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("IDEMPOTENCY_ENABLED", true)
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("BRANCH_POLICY", `claims.bid != ""`)
	v.SetDefault("MIGRATE_ON_START", false)
	v.SetDefault("WORKER_POLL_INTERVAL", "2s")
	v.SetDefault("WORKER_CLEANUP_INTERVAL", "1h")
	v.SetDefault("WORKER_BATCH_SIZE", 100)
}

// Load reads .env (when present) and the environment. Environment variables
// win over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(viper.New())
}

// FromViper builds a Config from v after applying defaults and environment
// binding.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Env:         v.GetString("APP_ENV"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			CompanyName: v.GetString("COMPANY_NAME"),
		},
		DB: DBConfig{
			URL:              v.GetString("DATABASE_URL"),
			MaxConns:         v.GetInt32("DB_MAX_CONNS"),
			MinConns:         v.GetInt32("DB_MIN_CONNS"),
			StatementTimeout: v.GetDuration("DB_STATEMENT_TIMEOUT"),
			MigrateOnStart:   v.GetBool("MIGRATE_ON_START"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Issuer: v.GetString("JWT_ISSUER"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		HTTP: HTTPConfig{
			Port:               v.GetString("APP_PORT"),
			RateLimit:          v.GetString("RATE_LIMIT"),
			LoginRateLimit:     v.GetString("LOGIN_RATE_LIMIT"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Idempotency: IdempotencyConfig{
			Enabled: v.GetBool("IDEMPOTENCY_ENABLED"),
			TTL:     v.GetDuration("IDEMPOTENCY_TTL"),
		},
		Worker: WorkerConfig{
			PollInterval:    v.GetDuration("WORKER_POLL_INTERVAL"),
			CleanupInterval: v.GetDuration("WORKER_CLEANUP_INTERVAL"),
			BatchSize:       v.GetInt("WORKER_BATCH_SIZE"),
		},
		BranchPolicy: v.GetString("BRANCH_POLICY"),
	}

	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.DB.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if !c.App.IsDevelopment() && (c.JWT.Secret == "" || c.JWT.Secret == DefaultJWTSecret) {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be set outside development (APP_ENV=%s)", c.App.Env))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.DB.MinConns > c.DB.MaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS exceeds DB_MAX_CONNS"))
	}
	if c.Worker.PollInterval <= 0 || c.Worker.CleanupInterval <= 0 {
		errs = append(errs, errors.New("worker intervals must be positive"))
	}
	if c.Idempotency.Enabled && c.Idempotency.TTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
