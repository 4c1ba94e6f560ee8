// Package metrics records fetch and comparison counters with Prometheus.
//
// pairdiff is a batch tool, so metrics are not scraped; the CLI writes them
// to a node_exporter textfile once a run finishes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request sources.
const (
	SourceLive   = "live"
	SourceCached = "cached"
)

// Metrics holds the collectors for one run. A nil *Metrics records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	comparisons     *prometheus.CounterVec
	cacheEntries    prometheus.Gauge
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pairdiff",
			Name:      "requests_total",
			Help:      "Requests resolved per side, by source (live, cached) or error.",
		}, []string{"side", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pairdiff",
			Name:      "request_duration_seconds",
			Help:      "Duration of live requests including normalization.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"side"}),
		comparisons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pairdiff",
			Name:      "comparisons_total",
			Help:      "Comparisons by result.",
		}, []string{"result"}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pairdiff",
			Name:      "cache_entries",
			Help:      "Responses held in the persistent cache.",
		}),
	}
	m.registry.MustRegister(m.requests, m.requestDuration, m.comparisons, m.cacheEntries)
	return m
}

// ObserveRequest records one resolved side. err marks a failure; source is
// SourceLive or SourceCached otherwise.
func (m *Metrics) ObserveRequest(side, source string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := source
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(side, outcome).Inc()
	if source == SourceLive {
		m.requestDuration.WithLabelValues(side).Observe(d.Seconds())
	}
}

// ObserveComparison records one finished comparison.
func (m *Metrics) ObserveComparison(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.comparisons.WithLabelValues("failure").Inc()
		return
	}
	m.comparisons.WithLabelValues("success").Inc()
}

// SetCacheEntries records the cache size.
func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(n))
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
