// Package engine composes the transport, normalizer, cache and dispatcher
// into the single Compare operation used by the CLI and the MCP server.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/usestring/pairdiff/internal/cache"
	"github.com/usestring/pairdiff/internal/fetch"
	"github.com/usestring/pairdiff/internal/metrics"
	"github.com/usestring/pairdiff/internal/normalize"
	"github.com/usestring/pairdiff/pkg/client"
	"github.com/usestring/pairdiff/pkg/types"
)

// ErrClosed is returned by Compare and Close after Close.
var ErrClosed = errors.New("engine is closed")

// Config holds the engine settings.
type Config struct {
	CachePath    string        // Cache file; empty disables caching
	AlwaysCache  bool          // Open the cache even if no initial spec asks for it
	Timeout      time.Duration // Per-request timeout
	Workers      int           // Comparisons in flight
	MaxBodyBytes int64
	UserAgent    string
	MemoItems    int // Normalized body memo size; 0 disables it
}

// Engine runs comparisons. Create it with New and call Close exactly once
// when done; Close persists the cache.
type Engine struct {
	cfg        Config
	store      *cache.Store
	normalizer *normalize.Normalizer
	dispatcher *fetch.Dispatcher

	httpClient *http.Client
	transport  fetch.Transport
	metrics    *metrics.Metrics
	onComplete func(name string, err error)

	// mu is held shared by Compare and exclusively by Close, so the cache
	// is persisted only after every in-flight fetch has finished.
	mu     sync.RWMutex
	closed bool
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithHTTPClient sets the HTTP client used for live requests.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		e.httpClient = c
	}
}

// WithTransport replaces the HTTP transport entirely.
func WithTransport(t fetch.Transport) Option {
	return func(e *Engine) {
		e.transport = t
	}
}

// WithMetrics records fetch and comparison metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithOnComplete registers a progress hook, called once per comparison.
func WithOnComplete(fn func(name string, err error)) Option {
	return func(e *Engine) {
		e.onComplete = fn
	}
}

// New validates specs and builds an engine. The cache is loaded only when
// cfg.CachePath is set and either cfg.AlwaysCache is true or some spec is
// cache-eligible. Invalid specs and unreadable or corrupt cache files are
// returned as errors before any request is made.
func New(cfg Config, specs []types.ComparisonSpec, opts ...Option) (*Engine, error) {
	if err := types.ValidateAll(specs); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}

	if cfg.CachePath != "" && (cfg.AlwaysCache || types.AnyRequiresCache(specs)) {
		store, err := cache.Load(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("loading cache: %w", err)
		}
		e.store = store
		e.metrics.SetCacheEntries(store.Len())
	} else if types.AnyRequiresCache(specs) {
		slog.Warn("caching requested but no cache path configured; fetching live")
	}

	var memo *cache.BodyMemo
	if cfg.MemoItems > 0 {
		m, err := cache.NewBodyMemo(cfg.MemoItems)
		if err != nil {
			return nil, fmt.Errorf("creating body memo: %w", err)
		}
		memo = m
	}

	transport := e.transport
	if transport == nil {
		clientOpts := []client.Option{
			client.WithTimeout(cfg.Timeout),
			client.WithMaxBodyBytes(cfg.MaxBodyBytes),
		}
		if cfg.UserAgent != "" {
			clientOpts = append(clientOpts, client.WithUserAgent(cfg.UserAgent))
		}
		if e.httpClient != nil {
			clientOpts = append(clientOpts, client.WithHTTPClient(e.httpClient))
		}
		transport = client.New(clientOpts...)
	}

	e.normalizer = normalize.New(memo)
	dispatcherOpts := []fetch.Option{
		fetch.WithNormalizer(e.normalizer),
		fetch.WithMetrics(e.metrics),
		fetch.WithWorkers(cfg.Workers),
	}
	if e.store != nil {
		dispatcherOpts = append(dispatcherOpts, fetch.WithStore(e.store))
	}
	if e.onComplete != nil {
		dispatcherOpts = append(dispatcherOpts, fetch.WithOnComplete(e.onComplete))
	}
	e.dispatcher = fetch.New(transport, dispatcherOpts...)

	return e, nil
}

// Compare runs all specs and returns successes and failures. The error is
// non-nil only for configuration problems (invalid specs, closed engine);
// request and comparison failures are in Report.Failures.
func (e *Engine) Compare(ctx context.Context, specs []types.ComparisonSpec) (*types.Report, error) {
	if err := types.ValidateAll(specs); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}

	return e.dispatcher.CompareAll(ctx, specs), nil
}

// FetchOne resolves a single request spec through the same cache and
// normalizer as Compare.
func (e *Engine) FetchOne(ctx context.Context, spec types.RequestSpec) (types.FetchedResponse, error) {
	if err := spec.Validate(); err != nil {
		return types.FetchedResponse{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return types.FetchedResponse{}, ErrClosed
	}

	return e.dispatcher.FetchOne(ctx, spec)
}

// Cache returns the cache store, or nil when caching is off.
func (e *Engine) Cache() *cache.Store {
	return e.store
}

// Normalizer returns the normalizer shared with the dispatcher.
func (e *Engine) Normalizer() *normalize.Normalizer {
	return e.normalizer
}

// Close waits for in-flight comparisons and persists the cache if one is
// open. A second call returns ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.closed = true

	if e.store == nil {
		return nil
	}
	if err := e.store.Close(); err != nil {
		return fmt.Errorf("closing cache: %w", err)
	}
	return nil
}
