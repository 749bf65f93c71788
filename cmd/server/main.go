// askbox - LLM chat relay server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/askbox/internal/api"
	"github.com/ashureev/askbox/internal/chat"
	"github.com/ashureev/askbox/internal/config"
	"github.com/ashureev/askbox/internal/llm"
	"github.com/ashureev/askbox/internal/middleware"
	"github.com/ashureev/askbox/internal/retry"
	"github.com/ashureev/askbox/internal/store"
	"github.com/ashureev/askbox/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server",
		"port", cfg.Port,
		"provider", cfg.Provider,
		"model", cfg.Model,
		"dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// The provider is chosen once at startup, never re-read per call.
	client, err := llm.New(cfg.Provider, cfg.APIKey, cfg.Model)
	if err != nil {
		slog.Error("Failed to initialize LLM provider", "error", err)
		os.Exit(1)
	}

	if cfg.ValidateOnStart {
		if err := llm.ValidateCredentials(context.Background(), client); err != nil {
			slog.Error("Credential validation failed", "provider", cfg.Provider, "error", err)
			os.Exit(1)
		}
		slog.Info("Provider credentials verified", "provider", cfg.Provider)
	}

	retrier := retry.NewController(llm.IsRateLimited,
		retry.WithAttempts(cfg.RetryAttempts),
		retry.WithBaseDelay(cfg.RetryBaseDelay),
	)

	svc := chat.NewService(client, repo, retrier, cfg.SystemPrompt)
	handler := api.NewHandler(svc)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	corsOrigins := []string{"*"}
	if !cfg.IsDevelopment() {
		corsOrigins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(corsOrigins))

	handler.RegisterRoutes(r)
	r.Get("/", web.IndexHandler(cfg.Provider).ServeHTTP)

	// A worst-case /ask holds the connection through every provider call and
	// every backoff sleep; the write timeout must cover the whole sequence.
	askBudget := time.Duration(cfg.RetryAttempts)*llm.CallTimeout +
		retry.TotalBackoff(cfg.RetryAttempts, cfg.RetryBaseDelay) +
		30*time.Second

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: askBudget,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
