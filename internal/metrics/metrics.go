package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Webhook Metrics
	WebhookEventsTotal         *prometheus.CounterVec
	SignatureVerificationTotal *prometheus.CounterVec

	// Token Store Metrics
	TokensStoredTotal  prometheus.Counter
	TokensDeletedTotal prometheus.Counter
	StoredTokens       *prometheus.GaugeVec

	// Query API Metrics
	TokenQueriesTotal *prometheus.CounterVec

	// Upstream Salla API Metrics
	UpstreamCallsTotal   *prometheus.CounterVec
	UpstreamCallDuration *prometheus.HistogramVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag.
// Uses sync.Once so Prometheus collectors are only registered once.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

func initMetrics() *Metrics {
	return &Metrics{
		WebhookEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_events_total",
				Help: "Total number of webhook deliveries processed",
			},
			[]string{"event", "result"}, // result: success, failure, error
		),
		SignatureVerificationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_signature_verification_total",
				Help: "Total number of webhook signature verifications",
			},
			[]string{"result"}, // success, failure, skipped
		),

		TokensStoredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "merchant_tokens_stored_total",
				Help: "Total number of merchant token upserts",
			},
		),
		TokensDeletedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "merchant_tokens_deleted_total",
				Help: "Total number of merchant token deletions",
			},
		),
		StoredTokens: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "merchant_tokens_stored",
				Help: "Current number of stored merchant tokens",
			},
			[]string{"state"}, // total, valid
		),

		TokenQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "token_queries_total",
				Help: "Total number of token query API requests",
			},
			[]string{"endpoint", "result"}, // endpoint: metadata, raw, inventory
		),

		UpstreamCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salla_api_calls_total",
				Help: "Total number of upstream Salla Admin API calls",
			},
			[]string{"resource", "result"}, // resource: orders, products, customers
		),
		UpstreamCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salla_api_call_duration_seconds",
				Help:    "Upstream Salla Admin API call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource"},
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
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001, 0.005, 0.010, 0.025, 0.050,
					0.100, 0.250, 0.500, 1.0, 2.5, 5.0, 10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
	}
}

func (m *Metrics) RecordWebhookEvent(event, result string) {
	m.WebhookEventsTotal.WithLabelValues(event, result).Inc()
}

func (m *Metrics) RecordSignatureVerification(result string) {
	m.SignatureVerificationTotal.WithLabelValues(result).Inc()
}

// RecordTokenStored counts an upsert. The merchant id is accepted for parity
// with the Recorder interface but never used as a label: merchant ids are
// unbounded and would blow up cardinality.
func (m *Metrics) RecordTokenStored(merchantID string) {
	m.TokensStoredTotal.Inc()
}

func (m *Metrics) RecordTokenDeleted(merchantID string) {
	m.TokensDeletedTotal.Inc()
}

func (m *Metrics) SetStoredTokensCount(total, valid int) {
	m.StoredTokens.WithLabelValues("total").Set(float64(total))
	m.StoredTokens.WithLabelValues("valid").Set(float64(valid))
}

func (m *Metrics) RecordTokenQuery(endpoint, result string) {
	m.TokenQueriesTotal.WithLabelValues(endpoint, result).Inc()
}

func (m *Metrics) RecordUpstreamCall(resource string, duration time.Duration, success bool) {
	result := ResultSuccess
	if !success {
		result = ResultError
	}
	m.UpstreamCallsTotal.WithLabelValues(resource, result).Inc()
	m.UpstreamCallDuration.WithLabelValues(resource).Observe(duration.Seconds())
}
