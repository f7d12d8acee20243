// Package budget computes the savings plan for the trip and keeps it in step
// with the expense ledger and the exchange rates.
package budget

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/observability"
	"github.com/theirongolddev/tripbudget/internal/observe"
	"github.com/theirongolddev/tripbudget/internal/rates"
	"github.com/theirongolddev/tripbudget/internal/store"
)

// Ledger is the part of the expense ledger the planner reads.
type Ledger interface {
	TotalIn(target string) decimal.Decimal
	List() []model.Expense
	Statistics() model.Statistics
	DistributionByCategory() map[model.Category]decimal.Decimal
	DistributionByCurrency() map[string]decimal.Decimal
	Subscribe(fn func([]model.Expense)) (cancel func())
}

// RateWatcher announces exchange-rate table changes.
type RateWatcher interface {
	Subscribe(fn func(rates.Table)) (cancel func())
}

// Planner owns the single active plan and trip record.
//
// The plan is recomputed from its inputs whenever the ledger or the rate
// table changes, and published to subscribers before the triggering call
// returns. Subscribers may read from the planner but must not mutate it.
type Planner struct {
	kv      store.KV
	led     Ledger
	log     *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string

	writeMu sync.Mutex

	mu        sync.RWMutex
	plan      *model.BudgetPlan
	trip      *model.TripBudget
	planDirty bool
	tripDirty bool

	planCell *observe.Cell[*model.BudgetPlan]
	tripCell *observe.Cell[*model.TripBudget]

	unsubscribe []func()
}

// New loads the persisted plan and trip and starts following led and rw.
// rw may be nil.
func New(kv store.KV, led Ledger, rw RateWatcher, log *zap.Logger, metrics *observability.Metrics) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Planner{
		kv:      kv,
		led:     led,
		log:     log,
		metrics: metrics,
		now:     time.Now,
		newID:   newTripID,
	}

	if plan := loadJSON[model.BudgetPlan](kv, store.KeyBudgetPlan, log); plan != nil {
		// Expenses or rates may have moved since the plan was saved.
		next := Calculate(inputOf(*plan), led.TotalIn(plan.TargetCurrency))
		p.plan = &next
	}
	p.trip = loadJSON[model.TripBudget](kv, store.KeyTripBudget, log)
	p.planCell = observe.NewCell(copyPlan(p.plan))
	p.tripCell = observe.NewCell(copyTrip(p.trip))

	p.unsubscribe = append(p.unsubscribe, led.Subscribe(func([]model.Expense) { p.recompute("expenses") }))
	if rw != nil {
		p.unsubscribe = append(p.unsubscribe, rw.Subscribe(func(rates.Table) { p.recompute("rates") }))
	}
	return p
}

// Close stops following the ledger and the rate table.
func (p *Planner) Close() {
	for _, cancel := range p.unsubscribe {
		cancel()
	}
	p.unsubscribe = nil
}

func loadJSON[T any](kv store.KV, key string, log *zap.Logger) *T {
	raw, err := kv.Get(key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		log.Warn("loading "+key, zap.Error(err))
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn("ignoring malformed "+key+" blob", zap.Error(err))
		return nil
	}
	return &v
}

// Create computes a new plan from in and the ledger total in its currency,
// replacing any existing plan.
func (p *Planner) Create(in PlanInput) (model.BudgetPlan, error) {
	in.TargetCurrency = model.NormalizeCode(in.TargetCurrency)
	if err := in.Validate(); err != nil {
		return model.BudgetPlan{}, err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	plan := Calculate(in, p.led.TotalIn(in.TargetCurrency))
	return plan, p.commitPlan(&plan)
}

// Update merges patch into the active plan and recomputes it. It returns
// nil and no error when there is no plan.
func (p *Planner) Update(patch PlanPatch) (*model.BudgetPlan, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	cur, ok := p.Plan()
	if !ok {
		return nil, nil
	}
	in := patch.apply(inputOf(cur))
	in.TargetCurrency = model.NormalizeCode(in.TargetCurrency)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	plan := Calculate(in, p.led.TotalIn(in.TargetCurrency))
	return &plan, p.commitPlan(&plan)
}

// Reset clears the plan and the trip record.
func (p *Planner) Reset() error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	return errors.Join(p.commitPlan(nil), p.commitTrip(nil))
}

// Plan returns the active plan.
func (p *Planner) Plan() (model.BudgetPlan, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.plan == nil {
		return model.BudgetPlan{}, false
	}
	return *p.plan, true
}

// CurrentStatus returns the status of the active plan, or insufficient
// when there is none.
func (p *Planner) CurrentStatus() model.BudgetStatus {
	plan, ok := p.Plan()
	if !ok {
		return model.StatusInsufficient
	}
	return Status(plan)
}

// ProjectSavings projects saving toward target. With an active plan the
// monthly requirement is achievable up to 40% of its income.
func (p *Planner) ProjectSavings(target, current decimal.Decimal, months int) model.SavingsCalculation {
	var limit *decimal.Decimal
	if plan, ok := p.Plan(); ok {
		l := plan.MonthlyIncome.Mul(AchievableShare)
		limit = &l
	}
	return Project(target, current, months, limit)
}

// Summary combines the ledger aggregates with the plan status.
func (p *Planner) Summary() model.BudgetSummary {
	stats := p.led.Statistics()
	return model.BudgetSummary{
		TotalExpenses:             p.led.TotalIn(""),
		ExpensesByCategory:        p.led.DistributionByCategory(),
		CurrencyBreakdown:         p.led.DistributionByCurrency(),
		AverageExpensePerCategory: stats.AverageExpense,
		MostExpensiveCategory:     stats.TopCategory,
		BudgetStatus:              p.CurrentStatus(),
	}
}

// Recommendations returns the advisories for the current state in lang.
func (p *Planner) Recommendations(lang i18n.Language) []model.Recommendation {
	var plan *model.BudgetPlan
	if cur, ok := p.Plan(); ok {
		plan = &cur
	}
	return Recommend(plan, p.led.Statistics(), p.Summary(), lang)
}

// SubscribePlan registers fn for every plan change. A nil plan means the
// plan was reset. fn must not modify the plan it receives.
func (p *Planner) SubscribePlan(fn func(*model.BudgetPlan)) (cancel func()) {
	return p.planCell.Subscribe(fn)
}

// Flush retries store writes that failed earlier.
func (p *Planner) Flush() error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.RLock()
	planDirty, tripDirty := p.planDirty, p.tripDirty
	plan, trip := copyPlan(p.plan), copyTrip(p.trip)
	p.mu.RUnlock()

	var errs []error
	if planDirty {
		errs = append(errs, p.persist(store.KeyBudgetPlan, plan, &p.planDirty))
	}
	if tripDirty {
		errs = append(errs, p.persist(store.KeyTripBudget, trip, &p.tripDirty))
	}
	return errors.Join(errs...)
}

func (p *Planner) recompute(reason string) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	cur, ok := p.Plan()
	if !ok {
		return
	}
	next := Calculate(inputOf(cur), p.led.TotalIn(cur.TargetCurrency))
	p.metrics.IncrPlanRecompute()
	if err := p.commitPlan(&next); err != nil {
		p.log.Warn("plan recomputed but not saved", zap.String("reason", reason), zap.Error(err))
	}
}

// commitPlan must be called with writeMu held.
func (p *Planner) commitPlan(plan *model.BudgetPlan) error {
	p.mu.Lock()
	p.plan = copyPlan(plan)
	p.mu.Unlock()

	err := p.persist(store.KeyBudgetPlan, plan, &p.planDirty)
	p.planCell.Set(copyPlan(plan))
	return err
}

// commitTrip must be called with writeMu held.
func (p *Planner) commitTrip(trip *model.TripBudget) error {
	p.mu.Lock()
	p.trip = copyTrip(trip)
	p.mu.Unlock()

	err := p.persist(store.KeyTripBudget, trip, &p.tripDirty)
	p.tripCell.Set(copyTrip(trip))
	return err
}

// persist writes v under key, or deletes key when v is a nil pointer.
func (p *Planner) persist(key string, v any, dirty *bool) error {
	var err error
	switch x := v.(type) {
	case *model.BudgetPlan:
		if x == nil {
			err = p.kv.Delete(key)
		} else {
			err = p.put(key, x)
		}
	case *model.TripBudget:
		if x == nil {
			err = p.kv.Delete(key)
		} else {
			err = p.put(key, x)
		}
	default:
		err = fmt.Errorf("unsupported value %T", v)
	}

	p.mu.Lock()
	*dirty = err != nil
	p.mu.Unlock()

	if err != nil {
		p.metrics.IncrStoreWriteError(key)
		p.log.Warn("saving "+key, zap.Error(err))
		return fmt.Errorf("saving %s: %w: %w", key, model.ErrPersistenceWrite, err)
	}
	return nil
}

func (p *Planner) put(key string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.kv.Put(key, blob)
}

func copyPlan(plan *model.BudgetPlan) *model.BudgetPlan {
	if plan == nil {
		return nil
	}
	c := *plan
	return &c
}
