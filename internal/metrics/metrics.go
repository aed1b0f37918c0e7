// Package metrics holds the Prometheus collectors for flight search runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flightwatch"

// Query outcomes.
const (
	OutcomeMatched = "matched"
	OutcomeNoMatch = "no_match"
	OutcomeFailed  = "source_error"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	QueriesTotal      *prometheus.CounterVec
	OffersNormalized  prometheus.Counter
	OffersFailed      *prometheus.CounterVec
	OffersRejected    *prometheus.CounterVec
	WinnersTotal      prometheus.Counter
	AlertsTotal       prometheus.Counter
	DeliveryFailures  *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	RunsTotal         *prometheus.CounterVec
	LastSuccessfulRun prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "queries_total",
			Help:      "Source queries by outcome",
		}, []string{"source", "outcome"}),
		OffersNormalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "offers_normalized_total",
			Help:      "Raw offers normalized successfully",
		}),
		OffersFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "offers_failed_total",
			Help:      "Raw offers dropped during normalization, by reason",
		}, []string{"reason"}),
		OffersRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "offers_rejected_total",
			Help:      "Offers rejected by the trip constraints, by reason",
		}, []string{"reason"}),
		WinnersTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "winners_total",
			Help:      "Query tuples that produced a cheapest offer",
		}),
		AlertsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "alerts_total",
			Help:      "Winners at or under the price threshold",
		}),
		DeliveryFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "delivery_failures_total",
			Help:      "Failed alert deliveries by sink",
		}, []string{"sink"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall time of a full search run",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "runs_total",
			Help:      "Search runs by status",
		}, []string{"status"}),
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed run",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the private registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordQuery(source, outcome string) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) RecordNormalized(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OffersNormalized.Add(float64(n))
}

func (m *Metrics) RecordNormalizationFailure(reason string) {
	if m == nil {
		return
	}
	m.OffersFailed.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordRejections(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OffersRejected.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) RecordWinner() {
	if m == nil {
		return
	}
	m.WinnersTotal.Inc()
}

func (m *Metrics) RecordAlerts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AlertsTotal.Add(float64(n))
}

func (m *Metrics) RecordDeliveryFailure(sink string) {
	if m == nil {
		return
	}
	m.DeliveryFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) RecordRun(status string, d time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
	if status == RunCompleted {
		m.LastSuccessfulRun.Set(float64(finished.Unix()))
	}
}

// Run statuses.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)
