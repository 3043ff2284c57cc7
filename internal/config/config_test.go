package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"APP_ENV", "APP_PORT", "DATABASE_URL", "JWT_SECRET", "JWT_TTL", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
}

func TestFromViper_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Addr())
	assert.Equal(t, int32(25), cfg.DB.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.DB.StatementTimeout)
	assert.Equal(t, 15*time.Minute, cfg.JWT.TTL)
	assert.True(t, cfg.Idempotency.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, `claims.bid != ""`, cfg.BranchPolicy)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, "5-M", cfg.HTTP.LoginRateLimit)
	assert.Equal(t, time.Hour, cfg.Worker.CleanupInterval)
}

func TestFromViper_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://hesap@localhost/hesap")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("IDEMPOTENCY_ENABLED", "false")
	t.Setenv("MIGRATE_ON_START", "true")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "postgres://hesap@localhost/hesap", cfg.DB.URL)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSAllowedOrigins)
	assert.False(t, cfg.Idempotency.Enabled)
	assert.True(t, cfg.DB.MigrateOnStart)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	cfg.DB.URL = "postgres://localhost/hesap"
	assert.NoError(t, cfg.Validate())

	cfg.App.Env = "production"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.JWT.Secret = "a-long-random-secret"
	assert.NoError(t, cfg.Validate())
}
