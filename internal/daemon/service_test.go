package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripbudget/internal/app"
	"github.com/theirongolddev/tripbudget/internal/budget"
	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/observability"
	"github.com/theirongolddev/tripbudget/internal/rates"
	"github.com/theirongolddev/tripbudget/internal/store"
)

type fakeSource struct{ err error }

func (f fakeSource) Fetch(context.Context, string) (rates.Table, error) {
	if f.err != nil {
		return rates.Table{}, f.err
	}
	return rates.Table{Base: "USD", Rates: map[string]decimal.Decimal{
		"SAR": decimal.RequireFromString("4"),
	}}, nil
}

func newTestService(t *testing.T, src rates.Source) (*Service, *app.Engine) {
	t.Helper()
	eng, err := app.New(app.Options{Store: store.NewMemory(), Source: src, Metrics: observability.NewMetrics()})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	s := New(Config{TargetCurrency: "usd", EventsBuffer: 2}, eng, nil)
	t.Cleanup(func() {
		s.Close()
		_ = eng.Close()
	})
	return s, eng
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestPublishEventRingBuffer(t *testing.T) {
	s, _ := newTestService(t, nil)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestComponentChangesAreMerged(t *testing.T) {
	s, eng := newTestService(t, nil)

	// More changes than any fixed queue would hold before Run drains them.
	for i := range 100 {
		if _, err := eng.Ledger.Add(model.ExpenseInput{
			Name: fmt.Sprintf("Item %d", i), Amount: decimal.NewFromInt(10), Currency: "USD", Category: model.CategoryFood,
		}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := eng.Language.Toggle(); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	select {
	case <-s.wake:
	default:
		t.Fatal("no wake-up signalled")
	}
	got := s.takePending()
	if len(got) != 2 || got[0] != EventExpenses || got[1] != EventLanguage {
		t.Fatalf("pending = %v, want [expenses language]", got)
	}
	if rest := s.takePending(); len(rest) != 0 {
		t.Fatalf("pending after drain = %v", rest)
	}

	s.Close()
	if _, err := eng.Ledger.Add(model.ExpenseInput{
		Name: "Food", Amount: decimal.NewFromInt(10), Currency: "USD", Category: model.CategoryFood,
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if rest := s.takePending(); len(rest) != 0 {
		t.Errorf("change recorded after Close: %v", rest)
	}
}

func TestStatusAndSummary(t *testing.T) {
	s, eng := newTestService(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	if _, err := eng.Ledger.Add(model.ExpenseInput{
		Name: "Flight", Amount: decimal.NewFromInt(600), Currency: "USD", Category: model.CategoryFlights,
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := eng.Planner.Create(budget.PlanInput{
		MonthlyIncome: decimal.NewFromInt(2000), MonthsUntilTravel: 3, TargetCurrency: "USD",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var st Status
	if code := getJSON(t, srv.URL+"/v1/status", &st); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	snap := st.Snapshot
	if snap.Expenses != 1 || !snap.Total.Equal(decimal.NewFromInt(600)) || snap.TargetCurrency != "USD" {
		t.Errorf("snapshot = %+v", snap)
	}
	if !snap.HasPlan || !snap.RequiredMonthly.Equal(decimal.NewFromInt(200)) || !snap.IsAffordable {
		t.Errorf("plan fields = %+v", snap)
	}
	if snap.Status != model.StatusComfortable {
		t.Errorf("status = %s", snap.Status)
	}

	var sum summaryResponse
	if code := getJSON(t, srv.URL+"/v1/summary?lang=en", &sum); code != http.StatusOK {
		t.Fatalf("summary code = %d", code)
	}
	if sum.Statistics.Count != 1 || len(sum.Recommendations) == 0 {
		t.Errorf("summary = %+v", sum)
	}
	if code := getJSON(t, srv.URL+"/v1/summary?lang=fr", nil); code != http.StatusBadRequest {
		t.Errorf("bad lang code = %d, want 400", code)
	}

	var converted []model.ConvertedExpense
	if code := getJSON(t, srv.URL+"/v1/expenses?currency=sar", &converted); code != http.StatusOK {
		t.Fatalf("expenses code = %d", code)
	}
	if len(converted) != 1 || converted[0].TargetCurrency != "SAR" || !converted[0].ConvertedAmount.Equal(decimal.NewFromInt(2250)) {
		t.Errorf("converted = %+v", converted)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		s, eng := newTestService(t, fakeSource{})
		srv := httptest.NewServer(s.Handler())
		defer srv.Close()

		resp, err := http.Post(srv.URL+"/v1/rates/refresh", "", nil)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("code = %d", resp.StatusCode)
		}
		if eng.Rates.Table().Origin != rates.OriginLive {
			t.Error("live table not installed")
		}
		if st := s.status(); st.RefreshCount != 1 || st.LastError != "" {
			t.Errorf("status = %+v", st)
		}
	})

	t.Run("failing", func(t *testing.T) {
		s, _ := newTestService(t, fakeSource{err: errors.New("down")})
		srv := httptest.NewServer(s.Handler())
		defer srv.Close()

		resp, err := http.Post(srv.URL+"/v1/rates/refresh", "", nil)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadGateway {
			t.Fatalf("code = %d, want 502", resp.StatusCode)
		}
		if st := s.status(); st.LastError == "" {
			t.Error("last error not recorded")
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestService(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/rates/refresh", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "tripbudget_rate_refresh_total") {
		t.Errorf("metrics output missing refresh counter:\n%s", body)
	}
}

func TestStreamSendsSnapshotThenEvents(t *testing.T) {
	s, _ := newTestService(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	rd := bufio.NewReader(resp.Body)
	readEvent := func() string {
		t.Helper()
		var kind string
		for {
			line, err := rd.ReadString('\n')
			if err != nil {
				t.Fatalf("read stream: %v", err)
			}
			line = strings.TrimSpace(line)
			if k, ok := strings.CutPrefix(line, "event: "); ok {
				kind = k
			}
			if line == "" && kind != "" {
				return kind
			}
		}
	}

	if kind := readEvent(); kind != EventSnapshot {
		t.Fatalf("first event = %q", kind)
	}

	// The subscriber is registered before the first write, so this reaches it.
	s.emit(EventRates)
	if kind := readEvent(); kind != EventRates {
		t.Fatalf("second event = %q", kind)
	}
}
