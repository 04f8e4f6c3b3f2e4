package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Clerk     ClerkConfig
	Webhook   WebhookConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ClerkConfig configures session-token verification against the
// identity provider. Signing keys are fetched from the provider's
// JWKS endpoint, never hardcoded, so key rotation needs no redeploy.
type ClerkConfig struct {
	// Issuer is the expected "iss" claim, e.g. https://your-app.clerk.accounts.dev
	Issuer string
	// JWKSURL overrides the key-set endpoint; derived from Issuer when empty.
	JWKSURL string
	// FetchTimeout bounds the network call for signing keys.
	FetchTimeout time.Duration
	// KeyCacheTTL bounds how long fetched keys are reused before a refresh.
	KeyCacheTTL time.Duration
}

// WebhookConfig configures provisioning-webhook signature verification.
type WebhookConfig struct {
	// SigningSecret is the shared Svix secret (with or without whsec_ prefix).
	SigningSecret string
	// Tolerance is the accepted clock skew on the webhook timestamp header.
	Tolerance time.Duration
}

// RateLimitConfig holds the per-class request budgets. All windows are
// fixed 60-second wall-clock-aligned windows.
type RateLimitConfig struct {
	Window   time.Duration
	Auth     int
	General  int
	Catalog  int
	Payments int
	Upload   int
}

// Load reads configuration from environment variables
// Call godotenv.Load() before this if using .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "unideal"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Clerk: ClerkConfig{
			Issuer:       getEnv("CLERK_ISSUER", ""),
			JWKSURL:      getEnv("CLERK_JWKS_URL", ""),
			FetchTimeout: getDurationEnv("CLERK_JWKS_FETCH_TIMEOUT", 5*time.Second),
			KeyCacheTTL:  getDurationEnv("CLERK_JWKS_CACHE_TTL", time.Hour),
		},
		Webhook: WebhookConfig{
			SigningSecret: getEnv("CLERK_WEBHOOK_SECRET", ""),
			Tolerance:     getDurationEnv("WEBHOOK_TOLERANCE", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Window:   time.Minute,
			Auth:     getIntEnv("RATE_LIMIT_AUTH", 5),
			General:  getIntEnv("RATE_LIMIT_GENERAL", 60),
			Catalog:  getIntEnv("RATE_LIMIT_CATALOG", 30),
			Payments: getIntEnv("RATE_LIMIT_PAYMENTS", 10),
			Upload:   getIntEnv("RATE_LIMIT_UPLOAD", 10),
		},
	}

	if cfg.Clerk.Issuer == "" {
		return nil, fmt.Errorf("CLERK_ISSUER is required")
	}
	if cfg.Webhook.SigningSecret == "" {
		return nil, fmt.Errorf("CLERK_WEBHOOK_SECRET is required")
	}

	// Clerk serves the key set at the standard well-known path under the issuer
	if cfg.Clerk.JWKSURL == "" {
		cfg.Clerk.JWKSURL = strings.TrimSuffix(cfg.Clerk.Issuer, "/") + "/.well-known/jwks.json"
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
