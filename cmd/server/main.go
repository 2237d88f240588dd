// Command server runs the AI News API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ainews/internal/bootstrap"
	"ainews/internal/config"
	"ainews/internal/middleware"
	"ainews/internal/observability"
	"ainews/internal/server"
)

// @title AI News API
// @version 1.0
// @description Posts, threaded comments, tags and profiles for an AI learning community

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	middleware.SetupLogger(cfg.Env, os.Stdout)

	ctx := context.Background()
	tracing := observability.NewTracingConfig(cfg)
	shutdownTracing, err := observability.InitTracing(ctx, tracing)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	slog.Info("tracing configured", "enabled", tracing.Enabled, "exporter", tracing.Exporter, "version", tracing.ServiceVersion())

	srv, err := server.NewServer(ctx, cfg, bootstrap.Options{
		SeedDemo: !cfg.IsProduction(),
	})
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		slog.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			slog.Error("tracing shutdown error", "error", err)
		}
	}()

	if err := srv.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}
