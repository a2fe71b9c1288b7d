package server

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/observability"
)

const namespace = "brickgrid"

// Metrics holds the Prometheus collectors of a server. It implements the
// observability hooks so store commands, gestures and cache lookups are
// counted alongside HTTP requests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	commandBricks   *prometheus.HistogramVec

	gestures        *prometheus.CounterVec
	gestureDuration *prometheus.HistogramVec

	cacheLookups *prometheus.CounterVec
	cacheBytes   *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed, labeled by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of request durations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_commands_total",
			Help:      "Layout store commands, labeled by op and result code.",
		}, []string{"op", "code"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_command_duration_seconds",
			Help:      "Histogram of layout store command durations.",
			Buckets:   []float64{.00001, .0001, .001, .01, .1},
		}, []string{"op"}),
		commandBricks: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_command_bricks",
			Help:      "Number of bricks touched per command.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"op"}),
		gestures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gestures_total",
			Help:      "Finished drag and resize gestures, labeled by kind and outcome.",
		}, []string{"kind", "outcome"}),
		gestureDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gesture_duration_seconds",
			Help:      "Histogram of gesture durations.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups, labeled by key type and result.",
		}, []string{"type", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache, labeled by key type.",
		}, []string{"type"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.commands, m.commandDuration, m.commandBricks,
		m.gestures, m.gestureDuration,
		m.cacheLookups, m.cacheBytes,
	)
	return m
}

// Registry returns the registry served on /metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Install registers m as the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetStoreHooks(m)
	observability.SetGestureHooks(m)
	observability.SetCacheHooks(m)
}

// OnCommand implements observability.StoreHooks.
func (m *Metrics) OnCommand(op string, bricks int, d time.Duration, err error) {
	code := "OK"
	if err != nil {
		code = string(errors.GetCode(err))
		if code == "" {
			code = "UNKNOWN"
		}
	}
	m.commands.WithLabelValues(op, code).Inc()
	m.commandDuration.WithLabelValues(op).Observe(d.Seconds())
	m.commandBricks.WithLabelValues(op).Observe(float64(bricks))
}

// OnGestureStart implements observability.GestureHooks.
func (m *Metrics) OnGestureStart(string, string) {}

// OnGestureEnd implements observability.GestureHooks.
func (m *Metrics) OnGestureEnd(kind, outcome string, d time.Duration) {
	m.gestures.WithLabelValues(kind, outcome).Inc()
	m.gestureDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

var (
	_ observability.StoreHooks   = (*Metrics)(nil)
	_ observability.GestureHooks = (*Metrics)(nil)
	_ observability.CacheHooks   = (*Metrics)(nil)
)
