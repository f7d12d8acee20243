package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripbudget/internal/budget"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/observability"
	"github.com/theirongolddev/tripbudget/internal/rates"
	"github.com/theirongolddev/tripbudget/internal/store"
)

type failingSource struct{}

func (failingSource) Fetch(context.Context, string) (rates.Table, error) {
	return rates.Table{}, errors.New("network down")
}

type liveSource struct{}

func (liveSource) Fetch(context.Context, string) (rates.Table, error) {
	return rates.Table{Base: "USD", Rates: map[string]decimal.Decimal{
		"SAR": decimal.RequireFromString("4"),
	}}, nil
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("New without store succeeded")
	}
}

func TestEngineEndToEnd(t *testing.T) {
	e, err := New(Options{Store: store.NewMemory(), Source: liveSource{}, Base: "USD", Metrics: observability.NewMetrics()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	if _, err := e.Ledger.Add(model.ExpenseInput{
		Name: "Hotel", Amount: decimal.NewFromInt(800), Currency: "SAR", Category: model.CategoryAccommodation,
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := e.Planner.Create(budget.PlanInput{
		CurrentSavings: decimal.Zero, MonthlyIncome: decimal.NewFromInt(1000), MonthsUntilTravel: 2, TargetCurrency: "USD",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if plan, _ := e.Planner.Plan(); !plan.TotalExpenses.Equal(decimal.RequireFromString("213.33")) {
		t.Fatalf("fallback total = %s", plan.TotalExpenses)
	}

	e.Start(context.Background())
	if plan, _ := e.Planner.Plan(); !plan.TotalExpenses.Equal(decimal.NewFromInt(200)) {
		t.Errorf("live total = %s, want 200", plan.TotalExpenses)
	}
}

func TestStartFallsBackOffline(t *testing.T) {
	e, err := New(Options{Store: store.NewMemory(), Source: failingSource{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	e.Start(context.Background())
	if _, ok := e.Rates.LastUpdated(); !ok {
		t.Error("fallback load not stamped")
	}
	if e.Rates.Table().Origin != rates.OriginFallback {
		t.Errorf("Origin = %s", e.Rates.Table().Origin)
	}
}

func TestEngineStateSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	open := func() *Engine {
		kv, err := store.Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		e, err := New(Options{Store: kv})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return e
	}

	e := open()
	if _, err := e.Ledger.Add(model.ExpenseInput{
		Name: "Flight", Amount: decimal.NewFromInt(500), Currency: "USD", Category: model.CategoryFlights,
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := e.Planner.Create(budget.PlanInput{MonthlyIncome: decimal.NewFromInt(3000), MonthsUntilTravel: 5, TargetCurrency: "USD"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := e.Language.Set(i18n.English); err != nil {
		t.Fatalf("Set language: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	e = open()
	defer e.Close()
	if e.Ledger.Len() != 1 {
		t.Errorf("expenses = %d", e.Ledger.Len())
	}
	if plan, ok := e.Planner.Plan(); !ok || !plan.RequiredMonthlySavings.Equal(decimal.NewFromInt(100)) {
		t.Errorf("plan = %+v, %v", plan, ok)
	}
	if e.Language.Current() != i18n.English {
		t.Errorf("language = %s", e.Language.Current())
	}
}

var errCloseFailed = errors.New("close failed")

type brokenCloseStore struct{ *store.Memory }

func (brokenCloseStore) Close() error { return errCloseFailed }

func TestCloseReportsUnsavedChangesAndCloseError(t *testing.T) {
	kv := brokenCloseStore{store.NewMemory()}
	e, err := New(Options{Store: kv})
	if err != nil {
		t.Fatal(err)
	}

	kv.SetFailWrites(true)
	if _, err := e.Ledger.Add(model.ExpenseInput{
		Name: "Hotel", Amount: decimal.NewFromInt(300), Currency: "USD", Category: model.CategoryAccommodation,
	}); !errors.Is(err, model.ErrPersistenceWrite) {
		t.Fatalf("Add err = %v, want ErrPersistenceWrite", err)
	}

	err = e.Close()
	if !errors.Is(err, model.ErrPersistenceWrite) {
		t.Errorf("Close err = %v, want the unsaved ledger reported", err)
	}
	if !errors.Is(err, errCloseFailed) {
		t.Errorf("Close err = %v, want the store close error too", err)
	}
}
