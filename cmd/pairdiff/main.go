// Command pairdiff fetches pairs of JSON endpoints described in a
// comparison file and prints a diff of each pair's normalized bodies.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/usestring/pairdiff/internal/cache"
	"github.com/usestring/pairdiff/internal/compare"
	"github.com/usestring/pairdiff/internal/config"
	"github.com/usestring/pairdiff/internal/engine"
	"github.com/usestring/pairdiff/internal/logging"
	"github.com/usestring/pairdiff/internal/metrics"
	"github.com/usestring/pairdiff/internal/render"
	"github.com/usestring/pairdiff/internal/specfile"
	"github.com/usestring/pairdiff/internal/telemetry"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailures = 1 // Some comparison failed
	exitConfig   = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pairdiff", flag.ContinueOnError)
	fs.SetOutput(stderr)
	clearCache := fs.Bool("clear-cache", false, "delete the cache file for the comparison file before running")
	contextLines := fs.Int("context", compare.DefaultContextLines, "lines of context around each diff hunk")
	onlyDiff := fs.Bool("only-diff", false, "print only comparisons whose sides differ")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: pairdiff [-clear-cache] [-context N] [-only-diff] <comparisons.json|toml|yaml>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitConfig
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitConfig
	}
	specPath := fs.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "pairdiff: %v\n", err)
		return exitConfig
	}

	cleanup, err := logging.Setup(cfg.Logging(), slog.String("run_id", uuid.NewString()))
	if err != nil {
		fmt.Fprintf(stderr, "pairdiff: %v\n", err)
		return exitConfig
	}
	defer cleanup()

	shutdownTracing, err := telemetry.Setup(ctx, "pairdiff", cfg.Telemetry())
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		return exitConfig
	}
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	cachePath := specfile.CachePath(specPath, cfg.CacheDir)
	if *clearCache {
		if err := cache.Remove(cachePath); err != nil {
			slog.Error("failed to clear cache", "path", cachePath, "error", err)
			return exitConfig
		}
	}

	specs, err := specfile.Load(specPath)
	if err != nil {
		slog.Error("failed to load comparisons", "path", specPath, "error", err)
		fmt.Fprintf(stderr, "pairdiff: %v\n", err)
		return exitConfig
	}

	m := metrics.New()
	var done atomic.Int32
	eng, err := engine.New(cfg.Engine(cachePath), specs,
		engine.WithMetrics(m),
		engine.WithOnComplete(func(name string, err error) {
			slog.Debug("comparison finished",
				slog.String("name", name),
				slog.Int("done", int(done.Add(1))),
				slog.Int("total", len(specs)),
				slog.Bool("ok", err == nil),
			)
		}),
	)
	if err != nil {
		slog.Error("failed to start", "error", err)
		fmt.Fprintf(stderr, "pairdiff: %v\n", err)
		return exitConfig
	}

	report, err := eng.Compare(ctx, specs)
	closeErr := eng.Close()
	if err != nil {
		fmt.Fprintf(stderr, "pairdiff: %v\n", err)
		return exitConfig
	}
	if closeErr != nil && !errors.Is(closeErr, engine.ErrClosed) {
		slog.Error("failed to persist cache", "path", cachePath, "error", closeErr)
	}

	if _, err := render.Report(stdout, report, render.Options{ContextLines: *contextLines, OnlyDiff: *onlyDiff}); err != nil {
		slog.Error("failed to write report", "error", err)
		return exitFailures
	}

	if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
		slog.Warn("failed to write metrics", "path", cfg.MetricsTextfile, "error", err)
	}

	if !report.OK() || closeErr != nil {
		return exitFailures
	}
	return exitOK
}
