// Package fetch issues comparison requests concurrently and merges cache
// lookups with live fetches.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/usestring/pairdiff/internal/cache"
	"github.com/usestring/pairdiff/internal/metrics"
	"github.com/usestring/pairdiff/internal/normalize"
	"github.com/usestring/pairdiff/pkg/client"
	"github.com/usestring/pairdiff/pkg/types"
)

// DefaultWorkers is the number of comparisons in flight at once.
const DefaultWorkers = 16

var tracer = otel.Tracer("github.com/usestring/pairdiff/internal/fetch")

// Transport sends one request and returns the raw response.
// *client.Client implements it.
type Transport interface {
	Do(ctx context.Context, spec types.RequestSpec) (*client.Response, error)
}

// Dispatcher resolves request specs from the cache or the network.
// It is safe for concurrent use.
type Dispatcher struct {
	transport  Transport
	store      *cache.Store
	normalizer *normalize.Normalizer
	metrics    *metrics.Metrics
	workers    int
	onComplete func(name string, err error)

	flight singleflight.Group
}

// Option is a functional option for configuring the Dispatcher.
type Option func(*Dispatcher)

// WithStore enables cache lookups and inserts. Without it every spec is
// fetched live and nothing is stored.
func WithStore(s *cache.Store) Option {
	return func(d *Dispatcher) {
		d.store = s
	}
}

// WithNormalizer sets the normalizer, e.g. one with a body memo.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(d *Dispatcher) {
		if n != nil {
			d.normalizer = n
		}
	}
}

// WithMetrics records request and comparison counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithWorkers bounds how many comparisons CompareAll runs at once.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithOnComplete registers a hook called once per finished comparison.
// Calls are serialized.
func WithOnComplete(fn func(name string, err error)) Option {
	return func(d *Dispatcher) {
		d.onComplete = fn
	}
}

// New creates a dispatcher over the given transport.
func New(transport Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport:  transport,
		normalizer: normalize.New(nil),
		workers:    DefaultWorkers,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FetchOne resolves a single spec. A cache-eligible spec with a cached
// entry is served without network I/O; a live cache-eligible result is
// stored before returning.
func (d *Dispatcher) FetchOne(ctx context.Context, spec types.RequestSpec) (types.FetchedResponse, error) {
	resp, fresh, err := d.fetch(ctx, "", spec)
	if err != nil {
		return types.FetchedResponse{}, err
	}
	if fresh {
		d.remember(spec, resp)
	}
	return resp, nil
}

// FetchComparison fetches both sides concurrently. If either side fails the
// comparison fails with a *types.ComparisonFailure naming the side and URL,
// and nothing from it is cached.
func (d *Dispatcher) FetchComparison(ctx context.Context, spec types.ComparisonSpec) (types.ComparisonResult, error) {
	ctx, span := tracer.Start(ctx, "fetch.comparison",
		trace.WithAttributes(attribute.String("pairdiff.comparison", spec.Name)),
	)
	defer span.End()

	var (
		left, right           types.FetchedResponse
		leftFresh, rightFresh bool
	)

	// A plain group: one side failing must not cancel the other, which may
	// be a shared fetch another comparison is waiting on.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		left, leftFresh, err = d.fetch(ctx, types.SideLeft, spec.Left)
		return sideFailure(spec.Name, types.SideLeft, spec.Left, err)
	})
	g.Go(func() error {
		var err error
		right, rightFresh, err = d.fetch(ctx, types.SideRight, spec.Right)
		return sideFailure(spec.Name, types.SideRight, spec.Right, err)
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.metrics.ObserveComparison(err)
		return types.ComparisonResult{}, err
	}

	if leftFresh {
		d.remember(spec.Left, left)
	}
	if rightFresh {
		d.remember(spec.Right, right)
	}

	d.metrics.ObserveComparison(nil)
	return types.ComparisonResult{Name: spec.Name, Left: left, Right: right}, nil
}

// CompareAll runs every comparison on a bounded worker pool and returns
// successes and failures. A failing comparison never stops its siblings.
// Both slices are in completion order.
func (d *Dispatcher) CompareAll(ctx context.Context, specs []types.ComparisonSpec) *types.Report {
	start := time.Now()
	report := &types.Report{
		Results:  make([]types.ComparisonResult, 0, len(specs)),
		Failures: make([]*types.ComparisonFailure, 0),
	}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(d.workers)

	for _, spec := range specs {
		g.Go(func() error {
			var (
				res types.ComparisonResult
				err error
			)
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = &types.ComparisonFailure{Name: spec.Name, Err: ctxErr}
			} else {
				res, err = d.FetchComparison(ctx, spec)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failure := asFailure(spec.Name, err)
				report.Failures = append(report.Failures, failure)
				slog.Warn("comparison failed",
					slog.String("name", failure.Name),
					slog.String("side", string(failure.Side)),
					slog.String("url", failure.URL),
					slog.String("error", errString(failure.Err)),
				)
			} else {
				report.Results = append(report.Results, res)
			}
			if d.onComplete != nil {
				d.onComplete(spec.Name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if d.store != nil {
		d.metrics.SetCacheEntries(d.store.Len())
	}

	slog.Info("comparisons completed",
		slog.Int("results", len(report.Results)),
		slog.Int("failures", len(report.Failures)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return report
}

// fetch resolves spec and reports whether the response came from the
// network (fresh) rather than the cache.
func (d *Dispatcher) fetch(ctx context.Context, side types.Side, spec types.RequestSpec) (types.FetchedResponse, bool, error) {
	wireURL, err := spec.WireURL()
	if err != nil {
		return types.FetchedResponse{}, false, fmt.Errorf("%w: %v", client.ErrInvalidURL, err)
	}

	if !d.cacheable(spec) {
		resp, err := d.live(ctx, side, wireURL, spec)
		return resp, err == nil, err
	}

	if cached, ok := d.store.Lookup(wireURL); ok {
		d.metrics.ObserveRequest(sideLabel(side), metrics.SourceCached, nil, 0)
		slog.Debug("cache hit", slog.String("url", wireURL))
		return cached, false, nil
	}

	// Concurrent fetches of one cache-eligible request share a single call
	// when method, URL, headers, auth and normalization options all match.
	// The shared call is detached from the caller's cancellation; the
	// transport timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := d.flight.Do(flightKey(wireURL, spec), func() (any, error) {
		return d.live(shared, side, wireURL, spec)
	})
	if err != nil {
		return types.FetchedResponse{}, false, err
	}
	return v.(types.FetchedResponse), true, nil
}

func (d *Dispatcher) live(ctx context.Context, side types.Side, wireURL string, spec types.RequestSpec) (types.FetchedResponse, error) {
	ctx, span := tracer.Start(ctx, "fetch.request",
		trace.WithAttributes(
			attribute.String("http.request.method", spec.EffectiveMethod()),
			attribute.String("url.full", wireURL),
			attribute.String("pairdiff.side", sideLabel(side)),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := d.doLive(ctx, wireURL, spec)
	d.metrics.ObserveRequest(sideLabel(side), metrics.SourceLive, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return types.FetchedResponse{}, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", int(resp.StatusCode)))
	return resp, nil
}

func (d *Dispatcher) doLive(ctx context.Context, wireURL string, spec types.RequestSpec) (types.FetchedResponse, error) {
	raw, err := d.transport.Do(ctx, spec)
	if err != nil {
		return types.FetchedResponse{}, err
	}

	body, err := d.normalizer.Normalize(ctx, raw.Body, raw.ContentType, normalize.Options{
		Redactions:  spec.Redactions,
		IgnorePaths: spec.IgnorePaths,
		Filter:      spec.Filter,
	})
	if err != nil {
		return types.FetchedResponse{}, fmt.Errorf("normalizing response (status %d): %w", raw.StatusCode, err)
	}

	return types.FetchedResponse{
		URL:        wireURL,
		StatusCode: raw.StatusCode,
		Body:       body,
	}, nil
}

func (d *Dispatcher) cacheable(spec types.RequestSpec) bool {
	return spec.UseCache && d.store != nil
}

// remember stores a fresh response for a cache-eligible spec.
func (d *Dispatcher) remember(spec types.RequestSpec, resp types.FetchedResponse) {
	if d.cacheable(spec) {
		d.store.Insert(resp.URL, resp)
	}
}

func sideFailure(name string, side types.Side, spec types.RequestSpec, err error) error {
	if err == nil {
		return nil
	}
	u, wireErr := spec.WireURL()
	if wireErr != nil {
		u = spec.URL
	}
	return &types.ComparisonFailure{Name: name, Side: side, URL: u, Err: err}
}

func asFailure(name string, err error) *types.ComparisonFailure {
	var f *types.ComparisonFailure
	if errors.As(err, &f) {
		return f
	}
	return &types.ComparisonFailure{Name: name, Err: err}
}

func sideLabel(side types.Side) string {
	if side == "" {
		return "single"
	}
	return string(side)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
