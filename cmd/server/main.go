// Remote-session control and notification fan-out server.
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
	"github.com/vhpooya/remotehub/internal/api"
	"github.com/vhpooya/remotehub/internal/capture"
	"github.com/vhpooya/remotehub/internal/config"
	"github.com/vhpooya/remotehub/internal/hub"
	"github.com/vhpooya/remotehub/internal/identity"
	"github.com/vhpooya/remotehub/internal/middleware"
	"github.com/vhpooya/remotehub/internal/store"
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
	directory, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize directory store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := directory.Close(); closeErr != nil {
			slog.Error("Failed to close directory store", "error", closeErr)
		}
	}()

	if err := directory.Ping(context.Background()); err != nil {
		slog.Error("Directory store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Directory store connected")

	// The capture provider is an external host capability. Without one
	// wired in, capture and input commands answer with error events.
	var provider capture.Provider = capture.Unavailable{}

	// Initialize the real-time core.
	groups := hub.NewGroups()
	registry := hub.NewRegistry(groups)
	notifier := hub.NewNotifier(groups, directory)
	engine := hub.NewEngine(provider, registry, groups, notifier, cfg.CaptureTimeout)
	wsHandler := hub.NewWebSocketHandler(registry, notifier, engine, provider, cfg.SendBuffer, cfg.FrontendURL, cfg.IsDevelopment())

	// Initialize handlers.
	baseHandler := api.NewHandler(directory, provider, registry, cfg.CaptureTimeout)
	healthHandler := api.NewHealthHandler(directory)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware([]byte(cfg.JWTSecret)))

	healthHandler.RegisterHealth(r)
	baseHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/control", wsHandler.ServeHTTP)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// No write timeout: WebSocket sessions stay open indefinitely.
		WriteTimeout: 0,
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
