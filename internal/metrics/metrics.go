package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the instrumentation surface used by handlers and repositories.
// Use Init to obtain either the Prometheus-backed implementation or a noop.
type Recorder interface {
	// Handshake lifecycle
	RecordHandshakeStarted(provider string)
	RecordHandshakeCompleted(provider string, success bool, duration time.Duration)

	// Connection lifecycle
	RecordConnectionAdded(provider string)
	RecordConnectionRemoved(provider string)
	RecordConnectionRefresh(provider string, success bool)

	// Sign-in resolution: result is "signed_in", "signed_up", "not_found" or
	// "ambiguous"
	RecordSignIn(provider, result string)
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Handshake Metrics
	HandshakesStartedTotal   *prometheus.CounterVec
	HandshakesCompletedTotal *prometheus.CounterVec
	HandshakeDuration        *prometheus.HistogramVec

	// Connection Metrics
	ConnectionsAddedTotal   *prometheus.CounterVec
	ConnectionsRemovedTotal *prometheus.CounterVec
	ConnectionRefreshTotal  *prometheus.CounterVec

	// Sign-in Metrics
	SignInTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		HandshakesStartedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_handshakes_started_total",
				Help: "Total number of provider handshakes started",
			},
			[]string{"provider"},
		),
		HandshakesCompletedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_handshakes_completed_total",
				Help: "Total number of provider handshakes completed",
			},
			[]string{"provider", "result"}, // success, error
		),
		HandshakeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "social_handshake_duration_seconds",
				Help:    "Time from callback receipt to completed token exchange",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		ConnectionsAddedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_connections_added_total",
				Help: "Total number of connections persisted",
			},
			[]string{"provider"},
		),
		ConnectionsRemovedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_connections_removed_total",
				Help: "Total number of connections removed",
			},
			[]string{"provider"},
		),
		ConnectionRefreshTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_connection_refresh_total",
				Help: "Total number of token refresh attempts",
			},
			[]string{"provider", "result"}, // success, error
		),
		SignInTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_sign_in_total",
				Help: "Total number of provider sign-in resolutions",
			},
			[]string{"provider", "result"}, // signed_in, signed_up, not_found, ambiguous
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of in-flight HTTP requests",
			},
		),
	}
}

const (
	resultSuccess = "success"
	resultError   = "error"
)

func boolResult(success bool) string {
	if success {
		return resultSuccess
	}
	return resultError
}

// RecordHandshakeStarted records a redirect to a provider's authorization URL
func (m *Metrics) RecordHandshakeStarted(provider string) {
	m.HandshakesStartedTotal.WithLabelValues(provider).Inc()
}

// RecordHandshakeCompleted records the outcome of a callback exchange
func (m *Metrics) RecordHandshakeCompleted(provider string, success bool, duration time.Duration) {
	m.HandshakesCompletedTotal.WithLabelValues(provider, boolResult(success)).Inc()
	if success {
		m.HandshakeDuration.WithLabelValues(provider).Observe(duration.Seconds())
	}
}

// RecordConnectionAdded records a persisted connection
func (m *Metrics) RecordConnectionAdded(provider string) {
	m.ConnectionsAddedTotal.WithLabelValues(provider).Inc()
}

// RecordConnectionRemoved records a removed connection
func (m *Metrics) RecordConnectionRemoved(provider string) {
	m.ConnectionsRemovedTotal.WithLabelValues(provider).Inc()
}

// RecordConnectionRefresh records a token refresh attempt
func (m *Metrics) RecordConnectionRefresh(provider string, success bool) {
	m.ConnectionRefreshTotal.WithLabelValues(provider, boolResult(success)).Inc()
}

// RecordSignIn records a provider sign-in resolution
func (m *Metrics) RecordSignIn(provider, result string) {
	m.SignInTotal.WithLabelValues(provider, result).Inc()
}
