// Package prom implements the observability hooks on top of Prometheus
// collectors.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/selgraph/pkg/observability"
)

// Metrics holds the collectors backing every hook interface.
type Metrics struct {
	Mutations       *prometheus.CounterVec
	ChangedElements *prometheus.CounterVec
	MutationLatency prometheus.Histogram
	Renders         *prometheus.CounterVec
	RenderLatency   *prometheus.HistogramVec
	CacheEvents     *prometheus.CounterVec
	StoreEvents     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Passing nil registers with prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "selgraph_mutations_total",
			Help: "Total number of selection mutations, labelled by operation.",
		}, []string{"op"}),

		ChangedElements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "selgraph_changed_elements_total",
			Help: "Total number of elements whose selection state changed, labelled by kind.",
		}, []string{"kind"}),

		MutationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "selgraph_mutation_duration_ms",
			Help:    "Selection mutation latency in milliseconds, including the full-graph diff.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
		}),

		Renders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "selgraph_renders_total",
			Help: "Total number of Graphviz renders, labelled by format and status.",
		}, []string{"format", "status"}),

		RenderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "selgraph_render_duration_ms",
			Help:    "Graphviz render latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"format"}),

		CacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "selgraph_cache_events_total",
			Help: "Cache hits, misses and writes, labelled by key type.",
		}, []string{"key_type", "event"}),

		StoreEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "selgraph_session_store_events_total",
			Help: "Session store loads and saves, labelled by backend, operation and status.",
		}, []string{"backend", "op", "status"}),
	}
}

// Register installs m as the global selection, render, cache and store hooks.
func (m *Metrics) Register() {
	observability.SetSelectionHooks(m)
	observability.SetRenderHooks(m)
	observability.SetCacheHooks(m)
	observability.SetStoreHooks(m)
}

func (m *Metrics) OnMutation(op string, nodeChanges, edgeChanges int, d time.Duration) {
	m.Mutations.WithLabelValues(op).Inc()
	m.ChangedElements.WithLabelValues("node").Add(float64(nodeChanges))
	m.ChangedElements.WithLabelValues("edge").Add(float64(edgeChanges))
	m.MutationLatency.Observe(millis(d))
}

func (m *Metrics) OnRenderStart(context.Context, string, int) {}

func (m *Metrics) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	m.Renders.WithLabelValues(format, status(err)).Inc()
	m.RenderLatency.WithLabelValues(format).Observe(millis(d))
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.CacheEvents.WithLabelValues(keyType, "set").Inc()
}

func (m *Metrics) OnLoad(_ context.Context, backend string, found bool, err error) {
	s := status(err)
	if err == nil && !found {
		s = "not_found"
	}
	m.StoreEvents.WithLabelValues(backend, "load", s).Inc()
}

func (m *Metrics) OnSave(_ context.Context, backend string, err error) {
	m.StoreEvents.WithLabelValues(backend, "save", status(err)).Inc()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.SelectionHooks = (*Metrics)(nil)
	_ observability.RenderHooks    = (*Metrics)(nil)
	_ observability.CacheHooks     = (*Metrics)(nil)
	_ observability.StoreHooks     = (*Metrics)(nil)
)
