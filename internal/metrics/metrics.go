// Package metrics exports pipeline, cache and hover events as Prometheus
// metrics by implementing the observability hooks.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/choropleth/pkg/observability"
)

const namespace = "choropleth"

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	Registry *prometheus.Registry

	derivations     *prometheus.CounterVec
	deriveDuration  prometheus.Histogram
	descriptors     prometheus.Gauge
	recordsDropped  *prometheus.CounterVec
	unmatched       prometheus.Gauge
	cacheRequests   *prometheus.CounterVec
	cacheWriteBytes *prometheus.CounterVec
	hoverChanges    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		derivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "derivations_total",
			Help:      "Total aggregate/classify/join runs by outcome",
		}, []string{"outcome"}),
		deriveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "derive_duration_ms",
			Help:      "Derivation duration in milliseconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000},
		}),
		descriptors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "descriptors",
			Help:      "Render descriptors produced by the last derivation",
		}),
		recordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Malformed dataset records excluded, by reason code",
		}, []string{"reason"}),
		unmatched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "features_without_data",
			Help:      "Features drawn with the fallback color in the last derivation",
		}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by key type and result",
		}, []string{"type", "result"}),
		cacheWriteBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"type"}),
		hoverChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hover_changes_total",
			Help:      "Hover target changes by previous and new target kind",
		}, []string{"from", "to"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route and status code",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP API request duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
		}, []string{"route"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.derivations,
		m.deriveDuration,
		m.descriptors,
		m.recordsDropped,
		m.unmatched,
		m.cacheRequests,
		m.cacheWriteBytes,
		m.hoverChanges,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Install registers m as the global pipeline, cache and interaction hooks.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(pipelineHooks{m})
	observability.SetCacheHooks(cacheHooks{m})
	observability.SetInteractionHooks(interactionHooks{m})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(float64(d) / float64(time.Millisecond))
}

type pipelineHooks struct{ m *Metrics }

func (h pipelineHooks) OnDeriveStart(context.Context, int, int) {}

func (h pipelineHooks) OnDeriveComplete(_ context.Context, descriptors int, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.m.derivations.WithLabelValues(outcome).Inc()
	h.m.deriveDuration.Observe(float64(d) / float64(time.Millisecond))
	if err == nil {
		h.m.descriptors.Set(float64(descriptors))
	}
}

func (h pipelineHooks) OnRecordDropped(_ context.Context, reason string) {
	h.m.recordsDropped.WithLabelValues(reason).Inc()
}

func (h pipelineHooks) OnUnmatched(_ context.Context, count int) {
	h.m.unmatched.Set(float64(count))
}

type cacheHooks struct{ m *Metrics }

func (h cacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.m.cacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.m.cacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.m.cacheWriteBytes.WithLabelValues(keyType).Add(float64(size))
}

type interactionHooks struct{ m *Metrics }

func (h interactionHooks) OnHoverChange(_ context.Context, from, to string) {
	h.m.hoverChanges.WithLabelValues(from, to).Inc()
}
