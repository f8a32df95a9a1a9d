package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transfer outcomes used as the "outcome" label.
const (
	OutcomeSuccess           = "success"
	OutcomeMissingAccount    = "missing_account"
	OutcomeNonPositiveAmount = "non_positive_amount"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeSelfTransfer      = "self_transfer"
	OutcomeLockTimeout       = "lock_timeout"
	OutcomeInternal          = "internal"
	OutcomePanic             = "panic"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	TransfersTotal      *prometheus.CounterVec
	TransferDuration    prometheus.Histogram
	NotificationsFailed *prometheus.CounterVec
	IdempotentReplays   prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TransfersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transfers_total",
				Help: "Total number of transfer attempts by outcome",
			},
			[]string{"outcome"},
		),
		TransferDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transfer_duration_seconds",
				Help:    "Time from lock acquisition start to lock release",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		NotificationsFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transfer_notifications_failed_total",
				Help: "Notifications that returned an error or panicked",
			},
			[]string{"side"}, // credit, debit
		),
		IdempotentReplays: f.NewCounter(
			prometheus.CounterOpts{
				Name: "transfer_idempotent_replays_total",
				Help: "Transfers answered from the idempotency cache",
			},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveTransfer records one transfer attempt.
func (m *Metrics) ObserveTransfer(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.TransfersTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.TransferDuration.Observe(d.Seconds())
	}
}

// NotificationFailed records a failed notification for one side of a transfer.
func (m *Metrics) NotificationFailed(side string) {
	if m == nil {
		return
	}
	m.NotificationsFailed.WithLabelValues(side).Inc()
}

// IdempotentReplay records a transfer served from the cache.
func (m *Metrics) IdempotentReplay() {
	if m == nil {
		return
	}
	m.IdempotentReplays.Inc()
}

// ObserveHTTP records one HTTP request.
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
