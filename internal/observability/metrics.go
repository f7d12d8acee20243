// Package observability builds the logger and the Prometheus metrics shared
// by the engine components and the daemon.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rate refresh outcomes.
const (
	RefreshLive     = "live"
	RefreshFallback = "fallback"
	RefreshFailed   = "failed"
	RefreshStale    = "stale"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// Registry owns every collector below; the daemon serves it on /metrics.
	Registry *prometheus.Registry

	rateRefreshes    *prometheus.CounterVec
	rateFetchSeconds prometheus.Histogram
	degraded         *prometheus.CounterVec
	storeWriteErrors *prometheus.CounterVec
	expenses         prometheus.Gauge
	planRecomputes   prometheus.Counter
}

// NewMetrics registers the collectors in a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		rateRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripbudget_rate_refresh_total",
				Help: "Rate table loads and refreshes by outcome.",
			},
			[]string{"result"},
		),
		rateFetchSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripbudget_rate_fetch_duration_seconds",
			Help:    "Duration of rate source fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		degraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripbudget_conversions_degraded_total",
				Help: "Conversions that assumed a rate of 1.",
			},
			[]string{"currency"},
		),
		storeWriteErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripbudget_store_write_errors_total",
				Help: "Failed store writes by key.",
			},
			[]string{"key"},
		),
		expenses: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tripbudget_expenses",
			Help: "Number of expenses in the ledger.",
		}),
		planRecomputes: factory.NewCounter(prometheus.CounterOpts{
			Name: "tripbudget_plan_recomputes_total",
			Help: "Budget plan recomputations.",
		}),
	}
}

// RecordRateRefresh counts one load or refresh outcome.
func (m *Metrics) RecordRateRefresh(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.rateRefreshes.WithLabelValues(result).Inc()
	if d > 0 {
		m.rateFetchSeconds.Observe(d.Seconds())
	}
}

// IncrDegraded counts a conversion that fell back to rate 1.
func (m *Metrics) IncrDegraded(currency string) {
	if m == nil {
		return
	}
	m.degraded.WithLabelValues(currency).Inc()
}

// IncrStoreWriteError counts a failed store write.
func (m *Metrics) IncrStoreWriteError(key string) {
	if m == nil {
		return
	}
	m.storeWriteErrors.WithLabelValues(key).Inc()
}

// SetExpenses records the current ledger size.
func (m *Metrics) SetExpenses(n int) {
	if m == nil {
		return
	}
	m.expenses.Set(float64(n))
}

// IncrPlanRecompute counts a plan recomputation.
func (m *Metrics) IncrPlanRecompute() {
	if m == nil {
		return
	}
	m.planRecomputes.Inc()
}
