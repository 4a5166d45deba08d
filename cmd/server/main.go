// CellChat - command router and dispatch layer for the cell development platform.
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/protoslabs/cellchat/internal/agent"
	"github.com/protoslabs/cellchat/internal/api"
	"github.com/protoslabs/cellchat/internal/config"
	"github.com/protoslabs/cellchat/internal/identity"
	"github.com/protoslabs/cellchat/internal/middleware"
	"github.com/protoslabs/cellchat/internal/registry"
	"github.com/protoslabs/cellchat/internal/router"
	"github.com/protoslabs/cellchat/internal/session"
	"github.com/protoslabs/cellchat/internal/store"
	"github.com/protoslabs/cellchat/internal/transcript"
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

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

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

	reg, err := registry.New(registry.Defaults())
	if err != nil {
		slog.Error("Failed to build agent registry", "error", err)
		os.Exit(1)
	}
	slog.Info("Agent registry loaded", "agents", reg.IDs())

	backend := agent.NewClient(agent.Config{
		BaseURL:        cfg.AgentBaseURL,
		RequestTimeout: cfg.AgentTimeout,
		ProbeTimeout:   cfg.ProbeTimeout,
	}, logger)

	transcriptLogger, err := transcript.New(transcript.Config{
		Enabled:   cfg.Transcript.Enabled,
		Dir:       cfg.Transcript.Dir,
		QueueSize: cfg.Transcript.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize transcript logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := transcriptLogger.Close(); closeErr != nil {
			slog.Warn("Failed to close transcript logger", "error", closeErr)
		}
	}()

	sessions := session.NewManager()
	rt := router.New(router.Options{
		Sessions:      sessions,
		Classifier:    router.NewClassifier(reg, cfg.MinScore),
		Fallback:      router.NewFallbackController(backend, router.NewLocalAssistant(), cfg.ProbeInterval, logger),
		Store:         repo,
		Transcript:    transcriptLogger,
		HistoryWindow: cfg.HistoryWindow,
		Logger:        logger,
	})

	limiter := api.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	defer limiter.Stop()

	handler := api.NewHandler(rt, sessions, repo, reg, backend, limiter)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(corsOrigins(cfg)))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	handler.RegisterRoutes(r)

	// Note: SSE responses need long write deadlines, so WriteTimeout stays 0.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startSweeper(ctx, sessions, repo, cfg.SessionTTL)
	slog.Info("Session sweeper started", "session_ttl", cfg.SessionTTL)

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

func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return []string{"*"}
}

// startSweeper drops idle in-memory sessions and expired persisted records
// on a fixed cadence. Persisted sessions outlive their in-memory twins so a
// returning user resumes where they left off.
func startSweeper(ctx context.Context, sessions *session.Manager, repo store.Repository, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(ttl / 4)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Sweep(ttl); n > 0 {
					slog.Info("Swept idle sessions", "count", n)
				}
				cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				if n, err := repo.CleanupExpiredSessions(cleanupCtx, 7*24*time.Hour); err != nil {
					slog.Warn("Persisted session cleanup failed", "error", err)
				} else if n > 0 {
					slog.Info("Cleaned up expired persisted sessions", "count", n)
				}
				cancel()
			}
		}
	}()
}
