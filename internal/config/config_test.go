package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CLERK_ISSUER", "https://campus.clerk.accounts.dev")
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "unideal", cfg.Database.DBName)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())

	assert.Equal(t, 5*time.Second, cfg.Clerk.FetchTimeout)
	assert.Equal(t, time.Hour, cfg.Clerk.KeyCacheTTL)
	assert.Equal(t, "https://campus.clerk.accounts.dev/.well-known/jwks.json", cfg.Clerk.JWKSURL)

	assert.Equal(t, 5*time.Minute, cfg.Webhook.Tolerance)

	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 5, cfg.RateLimit.Auth)
	assert.Equal(t, 60, cfg.RateLimit.General)
	assert.Equal(t, 30, cfg.RateLimit.Catalog)
	assert.Equal(t, 10, cfg.RateLimit.Payments)
	assert.Equal(t, 10, cfg.RateLimit.Upload)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("RATE_LIMIT_GENERAL", "120")
	t.Setenv("CLERK_JWKS_URL", "https://keys.example.com/jwks.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, 120, cfg.RateLimit.General)
	assert.Equal(t, "https://keys.example.com/jwks.json", cfg.Clerk.JWKSURL, "explicit JWKS URL wins over the derived one")
}

func TestLoadMissingSecrets(t *testing.T) {
	t.Run("missing issuer", func(t *testing.T) {
		t.Setenv("CLERK_ISSUER", "")
		t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_abc")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("missing webhook secret", func(t *testing.T) {
		t.Setenv("CLERK_ISSUER", "https://campus.clerk.accounts.dev")
		t.Setenv("CLERK_WEBHOOK_SECRET", "")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "postgres",
		DBName:   "unideal",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=postgres dbname=unideal sslmode=disable",
		cfg.ConnectionString(),
	)

	cfg.ChannelBinding = "require"
	assert.Contains(t, cfg.ConnectionString(), "channel_binding=require")
}
