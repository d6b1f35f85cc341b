package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/intake/internal/api"
	"github.com/eldtechnologies/intake/internal/config"
	"github.com/eldtechnologies/intake/internal/handlers"
	"github.com/eldtechnologies/intake/internal/store"
	"github.com/eldtechnologies/intake/internal/web"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	backend := "sqlite"
	if cfg.UsePostgres() {
		backend = "postgres"
	}

	manager := store.NewManager(store.NewOpenFunc(cfg.DatabaseURL, cfg.SQLitePath), store.Options{
		Attempts: cfg.ConnectAttempts,
		Backoff:  cfg.ConnectBackoff,
	}, logger)
	defer manager.Close()

	// A dead database must not keep the server down: health reports
	// degraded and the next request re-dials.
	if err := manager.Connect(ctx); err != nil {
		logger.Error().Err(err).Str("backend", backend).Msg("store unreachable at startup, serving degraded")
	} else {
		logger.Info().Str("backend", backend).Msg("store ready")
	}

	// Initialize Redis for rate limiting
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		var err error
		redisClient, err = store.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisClient.Close()
		logger.Info().Msg("connected to Redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set, rate limiting disabled")
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Fatal().Err(err).Msg("template parsing failed")
	}

	h := handlers.NewHandler(manager, redisClient, renderer, !cfg.IsDevelopment(), logger)
	router := api.NewRouter(cfg, logger, h, redisClient)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting intake server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
