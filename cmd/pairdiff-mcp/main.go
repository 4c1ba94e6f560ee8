package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/usestring/pairdiff/internal/config"
	"github.com/usestring/pairdiff/internal/metrics"
	"github.com/usestring/pairdiff/internal/telemetry"
	"github.com/usestring/pairdiff/pkg/mcpsrv"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Configuration is loaded from environment variables:
	// - LOG_LEVEL, LOG_FILE: logging
	// - MCP_CACHE_FILE: where cached responses persist (default ./cache/mcp.json)
	// - MCP_ENV_ALLOW: variables tool input may reference as $VAR
	// - HTTP_CLIENT_TIMEOUT, FETCH_WORKERS: fetch behavior
	// - etc. (see internal/config for all options)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	shutdownTracing, err := telemetry.Setup(ctx, "pairdiff-mcp", cfg.Telemetry())
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	server, err := mcpsrv.NewServer(mcpsrv.WithConfig(cfg), mcpsrv.WithMetrics(m))
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}

	slog.Info("starting pairdiff MCP server on stdio", "cache_file", cfg.MCPCacheFile)
	runErr := server.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("server error", "error", runErr)
	}

	if err := server.Close(); err != nil {
		slog.Error("failed to close server", "error", err)
	}
	if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
		slog.Warn("failed to write metrics", "error", err)
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Warn("failed to flush traces", "error", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		os.Exit(1)
	}
	slog.Info("server stopped")
}
