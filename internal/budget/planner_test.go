package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/ledger"
	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/rates"
	"github.com/theirongolddev/tripbudget/internal/store"
)

type fixture struct {
	kv      *store.Memory
	rates   *rates.Provider
	ledger  *ledger.Ledger
	planner *Planner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := store.NewMemory()
	rp := rates.NewProvider(nil, "USD", nil, nil)
	led := ledger.New(kv, rp, nil, nil)
	p := New(kv, led, rp, nil, nil)
	t.Cleanup(p.Close)
	return &fixture{kv: kv, rates: rp, ledger: led, planner: p}
}

func (f *fixture) add(t *testing.T, name, amount, cur string, cat model.Category) model.Expense {
	t.Helper()
	e, err := f.ledger.Add(model.ExpenseInput{Name: name, Amount: d(amount), Currency: cur, Category: cat})
	if err != nil {
		t.Fatalf("Add(%s): %v", name, err)
	}
	return e
}

func TestCreateUsesLedgerTotal(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Flight", "4000", "USD", model.CategoryFlights)
	f.add(t, "Hotel", "7500", "SAR", model.CategoryAccommodation) // 2000 USD

	plan, err := f.planner.Create(PlanInput{
		CurrentSavings: d("1000"), MonthlyIncome: d("5000"), MonthsUntilTravel: 4, TargetCurrency: "usd",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !plan.TotalExpenses.Equal(d("6000")) || !plan.RequiredMonthlySavings.Equal(d("1250")) || !plan.IsAffordable {
		t.Fatalf("plan = %+v", plan)
	}
	if plan.TargetCurrency != "USD" {
		t.Errorf("TargetCurrency = %s", plan.TargetCurrency)
	}
	if f.planner.CurrentStatus() != model.StatusComfortable {
		t.Errorf("status = %s", f.planner.CurrentStatus())
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.planner.Create(PlanInput{CurrentSavings: d("-5"), MonthlyIncome: d("1"), TargetCurrency: "USD"})
	if !model.IsValidation(err) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := f.planner.Plan(); ok {
		t.Error("rejected create installed a plan")
	}
}

func TestUpdateWithoutPlan(t *testing.T) {
	f := newFixture(t)
	months := 3
	plan, err := f.planner.Update(PlanPatch{MonthsUntilTravel: &months})
	if plan != nil || err != nil {
		t.Fatalf("Update = %v, %v, want nil, nil", plan, err)
	}
}

func TestUpdateRecomputesWholePlan(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Flight", "5000", "USD", model.CategoryFlights)
	if _, err := f.planner.Create(PlanInput{MonthlyIncome: d("1000"), MonthsUntilTravel: 2, TargetCurrency: "USD"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.planner.CurrentStatus() != model.StatusInsufficient {
		t.Fatalf("status = %s, want insufficient", f.planner.CurrentStatus())
	}

	income := d("10000")
	cur := "SAR"
	plan, err := f.planner.Update(PlanPatch{MonthlyIncome: &income, TargetCurrency: &cur})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !plan.TotalExpenses.Equal(d("18750")) {
		t.Errorf("TotalExpenses = %s, want total re-read in SAR", plan.TotalExpenses)
	}
	if !plan.RequiredMonthlySavings.Equal(d("9375")) || plan.IsAffordable {
		t.Errorf("plan = %+v", plan)
	}
}

func TestPlanFollowsLedger(t *testing.T) {
	f := newFixture(t)
	if _, err := f.planner.Create(PlanInput{CurrentSavings: d("100"), MonthlyIncome: d("1000"), MonthsUntilTravel: 1, TargetCurrency: "USD"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var seen []string
	cancel := f.planner.SubscribePlan(func(p *model.BudgetPlan) {
		if p != nil {
			seen = append(seen, p.TotalExpenses.String())
		}
	})
	defer cancel()

	e := f.add(t, "Flight", "375", "SAR", model.CategoryFlights)
	plan, _ := f.planner.Plan()
	if !plan.TotalExpenses.Equal(d("100")) || !plan.SavingsGoal.IsZero() {
		t.Fatalf("after add plan = %+v", plan)
	}

	amt := d("750")
	if _, err := f.ledger.Update(e.ID, model.ExpensePatch{Amount: &amt}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	plan, _ = f.planner.Plan()
	if !plan.TotalExpenses.Equal(d("200")) || !plan.RequiredMonthlySavings.Equal(d("100")) {
		t.Fatalf("after update plan = %+v", plan)
	}

	if _, err := f.ledger.Remove(e.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	plan, _ = f.planner.Plan()
	if !plan.TotalExpenses.IsZero() {
		t.Fatalf("after remove plan = %+v", plan)
	}

	want := []string{"100", "200", "0"}
	if len(seen) != len(want) {
		t.Fatalf("subscriber saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %s, want %s", i, seen[i], want[i])
		}
	}
}

type staticSource struct{ table rates.Table }

func (s staticSource) Fetch(_ context.Context, _ string) (rates.Table, error) { return s.table, nil }

func TestPlanFollowsRates(t *testing.T) {
	kv := store.NewMemory()
	rp := rates.NewProvider(staticSource{table: rates.Table{Base: "USD", Rates: map[string]decimal.Decimal{"SAR": d("4")}}}, "USD", nil, nil)
	led := ledger.New(kv, rp, nil, nil)
	p := New(kv, led, rp, nil, nil)
	defer p.Close()

	if _, err := led.Add(model.ExpenseInput{Name: "Hotel", Amount: d("750"), Currency: "SAR", Category: model.CategoryAccommodation}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := p.Create(PlanInput{MonthlyIncome: d("1000"), MonthsUntilTravel: 2, TargetCurrency: "USD"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if plan, _ := p.Plan(); !plan.TotalExpenses.Equal(d("200")) {
		t.Fatalf("fallback total = %s, want 200", plan.TotalExpenses)
	}

	if err := rp.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if plan, _ := p.Plan(); !plan.TotalExpenses.Equal(d("187.5")) {
		t.Errorf("live total = %s, want 187.5", plan.TotalExpenses)
	}
}

func TestPlanPersistsAndReloads(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Flight", "600", "USD", model.CategoryFlights)
	if _, err := f.planner.Create(PlanInput{CurrentSavings: d("100"), MonthlyIncome: d("2000"), MonthsUntilTravel: 5, TargetCurrency: "USD"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A second engine over the same store sees the plan, recomputed against
	// whatever the ledger holds now.
	led := ledger.New(f.kv, f.rates, nil, nil)
	if _, err := led.Add(model.ExpenseInput{Name: "Hotel", Amount: d("400"), Currency: "USD", Category: model.CategoryAccommodation}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	reloaded := New(f.kv, led, nil, nil, nil)
	defer reloaded.Close()

	plan, ok := reloaded.Plan()
	if !ok {
		t.Fatal("plan not reloaded")
	}
	if !plan.TotalExpenses.Equal(d("1000")) || plan.MonthsUntilTravel != 5 {
		t.Errorf("reloaded plan = %+v", plan)
	}
}

func TestPlanWriteFailureIsNonFatal(t *testing.T) {
	f := newFixture(t)
	f.kv.SetFailWrites(true)

	plan, err := f.planner.Create(PlanInput{MonthlyIncome: d("100"), MonthsUntilTravel: 1, TargetCurrency: "USD"})
	if !errors.Is(err, model.ErrPersistenceWrite) {
		t.Fatalf("err = %v, want ErrPersistenceWrite", err)
	}
	if got, ok := f.planner.Plan(); !ok || got.MonthsUntilTravel != plan.MonthsUntilTravel {
		t.Fatal("plan not kept in memory")
	}

	f.kv.SetFailWrites(false)
	if err := f.planner.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := f.kv.Get(store.KeyBudgetPlan); err != nil {
		t.Errorf("plan not written by Flush: %v", err)
	}
}

func TestResetClearsPlanAndTrip(t *testing.T) {
	f := newFixture(t)
	if _, err := f.planner.Create(PlanInput{MonthlyIncome: d("100"), MonthsUntilTravel: 1, TargetCurrency: "USD"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.planner.CreateTrip("Rome", "EUR", time.Now().Add(48*time.Hour)); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if err := f.planner.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, ok := f.planner.Plan(); ok {
		t.Error("plan survived reset")
	}
	if _, ok := f.planner.Trip(); ok {
		t.Error("trip survived reset")
	}
	if _, err := f.kv.Get(store.KeyBudgetPlan); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("plan key not deleted: %v", err)
	}
	if _, err := f.kv.Get(store.KeyTripBudget); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("trip key not deleted: %v", err)
	}
}

func TestSummaryAndRecommendations(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Flight", "700", "USD", model.CategoryFlights)
	f.add(t, "Hotel", "300", "USD", model.CategoryAccommodation)

	sum := f.planner.Summary()
	if sum.BudgetStatus != model.StatusInsufficient {
		t.Errorf("status without plan = %s", sum.BudgetStatus)
	}
	if !sum.TotalExpenses.Equal(d("1000")) || !sum.AverageExpensePerCategory.Equal(d("500")) {
		t.Errorf("summary = %+v", sum)
	}
	if sum.MostExpensiveCategory != model.CategoryFlights {
		t.Errorf("MostExpensiveCategory = %s", sum.MostExpensiveCategory)
	}

	if got := codes(f.planner.Recommendations(i18n.English)); !equalCodes(got, []string{i18n.AdviceNoPlan}) {
		t.Errorf("no-plan codes = %v", got)
	}

	if _, err := f.planner.Create(PlanInput{CurrentSavings: d("1000"), MonthlyIncome: d("3000"), MonthsUntilTravel: 8, TargetCurrency: "USD"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []string{i18n.AdviceComfortable, i18n.AdviceExtras, i18n.AdviceFlights, i18n.AdviceFewExpenses, i18n.AdvicePlentyOfTime}
	if got := codes(f.planner.Recommendations(i18n.English)); !equalCodes(got, want) {
		t.Errorf("codes = %v, want %v", got, want)
	}
}

func TestProjectSavingsUsesPlanIncome(t *testing.T) {
	f := newFixture(t)
	if !f.planner.ProjectSavings(d("100000"), d("0"), 1).IsAchievable {
		t.Error("projection without a plan should be unbounded")
	}
	if _, err := f.planner.Create(PlanInput{MonthlyIncome: d("1000"), MonthsUntilTravel: 1, TargetCurrency: "USD"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !f.planner.ProjectSavings(d("400"), d("0"), 1).IsAchievable {
		t.Error("400 of 1000 income should be achievable")
	}
	if f.planner.ProjectSavings(d("401"), d("0"), 1).IsAchievable {
		t.Error("401 of 1000 income should not be achievable")
	}
}
