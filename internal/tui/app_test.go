package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripbudget/internal/app"
	"github.com/theirongolddev/tripbudget/internal/budget"
	"github.com/theirongolddev/tripbudget/internal/config"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/store"
)

func newTestApp(t *testing.T) (App, *app.Engine) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	eng, err := app.New(app.Options{Store: store.NewMemory()})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	if err := eng.Language.Set(i18n.English); err != nil {
		t.Fatalf("Set language: %v", err)
	}

	a := NewApp(eng, config.DefaultConfig(), "USD")
	a.needSetup = false
	a.setupForm = nil
	t.Cleanup(func() {
		a.Close()
		_ = eng.Close()
	})

	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App), eng
}

func press(t *testing.T, a App, key string) App {
	t.Helper()
	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return m.(App)
}

func TestFirstRunShowsSetup(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	eng, err := app.New(app.Options{Store: store.NewMemory()})
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()

	a := NewApp(eng, config.DefaultConfig(), "")
	defer a.Close()
	if !a.needSetup || a.setupForm == nil {
		t.Fatal("setup form not shown without a config file")
	}
	if a.target != "SAR" {
		t.Errorf("target = %s, want config default SAR", a.target)
	}
}

func TestTabSwitching(t *testing.T) {
	a, _ := newTestApp(t)

	a = press(t, a, "3")
	if a.activeTab != tabPlan {
		t.Fatalf("activeTab = %d, want %d", a.activeTab, tabPlan)
	}
	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = m.(App)
	if a.activeTab != tabRates {
		t.Fatalf("activeTab after tab = %d", a.activeTab)
	}
	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = m.(App)
	if a.activeTab != tabOverview {
		t.Fatalf("tab should wrap to overview, got %d", a.activeTab)
	}
}

func TestLanguageToggle(t *testing.T) {
	a, eng := newTestApp(t)

	a = press(t, a, "l")
	if a.lang != i18n.Arabic || eng.Language.Current() != i18n.Arabic {
		t.Fatalf("lang = %s / %s, want ar", a.lang, eng.Language.Current())
	}
	if !strings.Contains(a.View(), i18n.T(i18n.Arabic, i18n.KeyAppTitle)) {
		t.Error("view not rendered in Arabic")
	}
}

func TestEngineChangesReachDashboard(t *testing.T) {
	a, eng := newTestApp(t)

	if _, err := eng.Ledger.Add(model.ExpenseInput{
		Name: "Louvre tickets", Amount: decimal.NewFromInt(40), Currency: "EUR", Category: model.CategoryEntertainment,
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	select {
	case msg := <-a.changes:
		if cm, ok := msg.(ChangedMsg); !ok || cm.Kind != "expenses" {
			t.Errorf("msg = %#v", msg)
		}
	default:
		t.Fatal("no change delivered")
	}

	a = press(t, a, "2")
	if view := a.View(); !strings.Contains(view, "Louvre tickets") {
		t.Errorf("expenses tab missing new expense:\n%s", view)
	}
}

func TestPlanTab(t *testing.T) {
	a, eng := newTestApp(t)

	a = press(t, a, "3")
	if !strings.Contains(a.View(), i18n.T(i18n.English, i18n.AdviceNoPlan)) {
		t.Error("plan tab should prompt for a plan")
	}

	if _, err := eng.Ledger.Add(model.ExpenseInput{
		Name: "Flight", Amount: decimal.NewFromInt(900), Currency: "USD", Category: model.CategoryFlights,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Planner.Create(budget.PlanInput{
		CurrentSavings: decimal.NewFromInt(300), MonthlyIncome: decimal.NewFromInt(4000),
		MonthsUntilTravel: 3, TargetCurrency: "USD",
	}); err != nil {
		t.Fatal(err)
	}
	view := a.View()
	if !strings.Contains(view, "$200.00") {
		t.Errorf("plan tab missing required monthly:\n%s", view)
	}
}

func TestNarrowTerminal(t *testing.T) {
	a, _ := newTestApp(t)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	if !strings.Contains(m.(App).View(), "too narrow") {
		t.Error("narrow terminal not reported")
	}
}
