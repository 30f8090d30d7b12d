package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/tendant/simple-values/pkg/simplevalues/api"
	"github.com/tendant/simple-values/pkg/simplevalues/config"
)

func main() {
	// Load configuration from environment
	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load server configuration", "error", err)
		os.Exit(1)
	}

	logger := serverConfig.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := serverConfig.Build(ctx, logger)
	if err != nil {
		logger.Error("Failed to build service", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	// Content types with configuration faults are logged, not fatal
	if err := rt.Service.ValidateContentTypes(ctx); err != nil {
		logger.Warn("Content type validation reported faults", "error", err)
	}

	if rt.Subscriber != nil {
		go func() {
			if err := rt.Subscriber.Run(ctx); err != nil {
				logger.Error("Invalidation subscriber stopped", "error", err)
			}
		}()
	}

	options := []api.Option{
		api.WithNotifier(rt.Notifier),
		api.WithLogger(logger),
	}
	if rt.Auth != nil {
		options = append(options, api.WithPreviewAuth(rt.Auth))
	}
	handler := api.NewHandler(rt.Service, rt.Snapshots, options...)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: routes(serverConfig, handler),
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Simple Values Server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"url_strategy", serverConfig.URLStrategy,
			"redis", serverConfig.RedisURL != "",
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	// Create a deadline to wait for
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exiting")
}

func routes(serverConfig *config.ServerConfig, handler *api.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})
	r.Get("/healthz/ready", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, render.M{
			"status":      "ready",
			"environment": serverConfig.Environment,
		})
	})

	r.Mount("/api/v1", handler.Routes())
	return r
}
