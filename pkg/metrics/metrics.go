package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
// A dedicated registry avoids duplicate-registration panics in tests.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP Request Metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// WebSocket Metrics
	websocketConnections   prometheus.Gauge
	websocketEventsTotal   *prometheus.CounterVec
	websocketDroppedTotal  prometheus.Counter

	// Call Metrics
	callsTotal    *prometheus.CounterVec
	callsActive   prometheus.Gauge
	callsDuration prometheus.Histogram

	// Message Metrics
	messagesSentTotal prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: constLabels,
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "HTTP request latency",
				ConstLabels: constLabels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "http_requests_in_flight",
				Help:        "Number of HTTP requests currently being served",
				ConstLabels: constLabels,
			},
		),
		websocketConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "websocket_connections",
				Help:        "Number of active WebSocket sessions",
				ConstLabels: constLabels,
			},
		),
		websocketEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "websocket_events_total",
				Help:        "Total events delivered over WebSocket by event type",
				ConstLabels: constLabels,
			},
			[]string{"event"},
		),
		websocketDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "websocket_events_dropped_total",
				Help:        "Events dropped because the recipient had no active session",
				ConstLabels: constLabels,
			},
		),
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "calls_total",
				Help:        "Total calls by final status",
				ConstLabels: constLabels,
			},
			[]string{"status"},
		),
		callsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "calls_active",
				Help:        "Calls currently in a non-terminal status",
				ConstLabels: constLabels,
			},
		),
		callsDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:        "call_duration_seconds",
				Help:        "Duration of ended calls",
				ConstLabels: constLabels,
				Buckets:     []float64{10, 30, 60, 180, 600, 1800, 3600},
			},
		),
		messagesSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "chat_messages_sent_total",
				Help:        "Total chat messages accepted",
				ConstLabels: constLabels,
			},
		),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpRequestsInFlight,
		m.websocketConnections,
		m.websocketEventsTotal,
		m.websocketDroppedTotal,
		m.callsTotal,
		m.callsActive,
		m.callsDuration,
		m.messagesSentTotal,
	)

	return m
}

// GetRegistry returns the dedicated Prometheus registry
func (m *Metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records one served HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments the in-flight gauge
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.httpRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements the in-flight gauge
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.httpRequestsInFlight.Dec()
}

// WebSocketConnected records a new WebSocket session
func (m *Metrics) WebSocketConnected() {
	m.websocketConnections.Inc()
}

// WebSocketDisconnected records a closed WebSocket session
func (m *Metrics) WebSocketDisconnected() {
	m.websocketConnections.Dec()
}

// RecordEvent records one delivered WebSocket event
func (m *Metrics) RecordEvent(event string) {
	m.websocketEventsTotal.WithLabelValues(event).Inc()
}

// RecordDroppedEvent records an event dropped for lack of a recipient session
func (m *Metrics) RecordDroppedEvent() {
	m.websocketDroppedTotal.Inc()
}

// CallStarted records a newly created call
func (m *Metrics) CallStarted() {
	m.callsActive.Inc()
}

// CallFinished records a call reaching a terminal status
func (m *Metrics) CallFinished(status string, duration time.Duration) {
	m.callsActive.Dec()
	m.callsTotal.WithLabelValues(status).Inc()
	if duration > 0 {
		m.callsDuration.Observe(duration.Seconds())
	}
}

// MessageSent records an accepted chat message
func (m *Metrics) MessageSent() {
	m.messagesSentTotal.Inc()
}
