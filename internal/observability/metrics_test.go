package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.RecordRateRefresh(RefreshLive, 20*time.Millisecond)
	m.RecordRateRefresh(RefreshFailed, 0)
	m.IncrDegraded("XYZ")
	m.IncrStoreWriteError("expenses")
	m.SetExpenses(4)

	if got := testutil.ToFloat64(m.rateRefreshes.WithLabelValues(RefreshLive)); got != 1 {
		t.Errorf("live refreshes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.degraded.WithLabelValues("XYZ")); got != 1 {
		t.Errorf("degraded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.expenses); got != 4 {
		t.Errorf("expenses gauge = %v, want 4", got)
	}
}

func TestNewMetricsTwice(t *testing.T) {
	// Private registries: a second call must not panic on duplicate collectors.
	_ = NewMetrics()
	_ = NewMetrics()
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordRateRefresh(RefreshStale, time.Second)
	m.IncrDegraded("USD")
	m.IncrStoreWriteError("expenses")
	m.SetExpenses(1)
	m.IncrPlanRecompute()
}
