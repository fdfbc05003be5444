package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the service. The struct is
// passed explicitly to every component that records; a nil *Metrics
// disables recording at the call sites.
type Metrics struct {
	// Solana RPC
	rpcCallsTotal   *prometheus.CounterVec
	rpcCallDuration *prometheus.HistogramVec

	// Transaction resolution pipeline
	cacheEventsTotal        *prometheus.CounterVec
	transactionsServedTotal *prometheus.CounterVec
	accountLookupsTotal     *prometheus.CounterVec

	// HTTP
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS
	natsPublishesTotal  *prometheus.CounterVec
	natsPublishDuration prometheus.Histogram
}

// NewMetrics creates a Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		rpcCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		rpcCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),
		cacheEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transaction_cache_events_total",
				Help: "Cache lookups on the transaction resolution path by layer (lru, store) and result (hit, miss)",
			},
			[]string{"layer", "result"},
		),
		transactionsServedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_served_total",
				Help: "Transaction responses by originating source (lru, store, rpc) and status",
			},
			[]string{"source", "status"},
		),
		accountLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_transaction_lookups_total",
				Help: "Account transaction listing requests by status",
			},
			[]string{"status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 15.0},
			},
			[]string{"handler", "method"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by handler, method and status code",
			},
			[]string{"handler", "method", "code"},
		),
		natsPublishesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_publishes_total",
				Help: "Total number of NATS publish attempts by status",
			},
			[]string{"status"},
		),
		natsPublishDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publishes in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
		),
	}
}

// RecordRPCCall records one Solana RPC call.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.rpcCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.rpcCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordCacheEvent records a hit or miss on one cache layer.
func (m *Metrics) RecordCacheEvent(layer, result string) {
	m.cacheEventsTotal.WithLabelValues(layer, result).Inc()
}

// RecordTransactionServed records a transaction response and where the
// record came from.
func (m *Metrics) RecordTransactionServed(source, status string) {
	m.transactionsServedTotal.WithLabelValues(source, status).Inc()
}

// RecordAccountLookup records an account transaction listing request.
func (m *Metrics) RecordAccountLookup(status string) {
	m.accountLookupsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records one HTTP request.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	m.httpRequestDuration.WithLabelValues(handler, method).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, statusLabel(statusCode)).Inc()
}

// RecordNATSPublish records one publish attempt.
func (m *Metrics) RecordNATSPublish(status string, duration float64) {
	m.natsPublishesTotal.WithLabelValues(status).Inc()
	m.natsPublishDuration.Observe(duration)
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
