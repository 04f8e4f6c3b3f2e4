package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/unideal/unideal-server/internal/auth"
	"github.com/unideal/unideal-server/internal/catalog"
	"github.com/unideal/unideal-server/internal/config"
	"github.com/unideal/unideal-server/internal/database"
	httpServer "github.com/unideal/unideal-server/internal/http"
	"github.com/unideal/unideal-server/internal/logging"
	"github.com/unideal/unideal-server/internal/ratelimit"
	"github.com/unideal/unideal-server/internal/user"
	"github.com/unideal/unideal-server/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	bunDB := database.NewBunDB(db)

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewRepository(bunDB)
	catalogRepo := catalog.NewRepository(bunDB)

	// Initialize token verifier (keys fetched from the provider's JWKS endpoint)
	verifier := auth.NewVerifier(cfg.Clerk)

	// Initialize identity reconciler
	userService := user.NewService(userRepo, logger)

	// Initialize webhook intake
	webhookVerifier, err := webhook.NewVerifier(cfg.Webhook.SigningSecret, cfg.Webhook.Tolerance)
	if err != nil {
		return fmt.Errorf("failed to initialize webhook verifier: %w", err)
	}
	deliveryLog := webhook.NewRedisDeliveryLog(redisClient, cfg.Webhook.Tolerance)
	webhookHandler := webhook.NewHandler(webhookVerifier, deliveryLog, userService, logger)

	// Initialize rate limiter
	limiter := ratelimit.NewLimiter()
	policies := ratelimit.PoliciesFromConfig(cfg.RateLimit)

	// Initialize auth middleware
	authMiddleware := auth.NewMiddleware(verifier, userService)

	// Initialize HTTP handlers
	userHandler := user.NewHandler(userRepo, logger)
	catalogHandler := catalog.NewHandler(catalogRepo, logger)

	// Initialize router
	router := httpServer.NewRouter(cfg, limiter, policies, authMiddleware, userHandler, webhookHandler, catalogHandler, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB opens and verifies the database connection
func initDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return sqlDB, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
