package budget

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/tripbudget/internal/model"
)

func newTripID() string { return uuid.NewString() }

// TripPatch changes trip details. Nil fields are kept.
type TripPatch struct {
	Destination    *string
	TargetCurrency *string
	DepartureDate  *time.Time
}

// BudgetData is the export format for the plan and trip.
type BudgetData struct {
	BudgetPlan *model.BudgetPlan `json:"budgetPlan"`
	TripBudget *model.TripBudget `json:"tripBudget"`
}

func validateTrip(t model.TripBudget) error {
	if strings.TrimSpace(t.Destination) == "" {
		return &model.ValidationError{Field: "destination", Message: "must not be empty"}
	}
	return PlanInput{TargetCurrency: t.TargetCurrency}.Validate()
}

// CreateTrip records the trip, snapshotting the current expenses and plan.
func (p *Planner) CreateTrip(destination, targetCurrency string, departure time.Time) (model.TripBudget, error) {
	now := p.now()
	trip := model.TripBudget{
		Destination:    strings.TrimSpace(destination),
		TargetCurrency: model.NormalizeCode(targetCurrency),
		DepartureDate:  departure,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := validateTrip(trip); err != nil {
		return model.TripBudget{}, err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	trip.ID = p.newID()
	trip.Expenses = p.led.List()
	if plan, ok := p.Plan(); ok {
		trip.BudgetPlan = &plan
	}
	return trip, p.commitTrip(&trip)
}

// UpdateTrip merges patch into the trip record. It returns nil and no error
// when there is no trip.
func (p *Planner) UpdateTrip(patch TripPatch) (*model.TripBudget, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	cur, ok := p.Trip()
	if !ok {
		return nil, nil
	}
	if patch.Destination != nil {
		cur.Destination = strings.TrimSpace(*patch.Destination)
	}
	if patch.TargetCurrency != nil {
		cur.TargetCurrency = model.NormalizeCode(*patch.TargetCurrency)
	}
	if patch.DepartureDate != nil {
		cur.DepartureDate = *patch.DepartureDate
	}
	if err := validateTrip(cur); err != nil {
		return nil, err
	}
	cur.UpdatedAt = p.now()
	return &cur, p.commitTrip(&cur)
}

// Trip returns the trip record.
func (p *Planner) Trip() (model.TripBudget, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.trip == nil {
		return model.TripBudget{}, false
	}
	return *copyTrip(p.trip), true
}

// DaysUntilTravel returns whole days from now to departure, rounded up and
// never negative. It is 0 without a trip.
func (p *Planner) DaysUntilTravel(now time.Time) int {
	trip, ok := p.Trip()
	if !ok {
		return 0
	}
	days := math.Ceil(trip.DepartureDate.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// SavingsProgress returns current savings as a percentage of the trip
// total, clamped to 0..100. It is 0 without a plan or when nothing needs
// saving.
func (p *Planner) SavingsProgress() float64 {
	plan, ok := p.Plan()
	if !ok || plan.SavingsGoal.IsZero() || !plan.TotalExpenses.IsPositive() {
		return 0
	}
	pct := plan.CurrentSavings.Div(plan.TotalExpenses).InexactFloat64() * 100
	return math.Min(100, math.Max(0, pct))
}

// SubscribeTrip registers fn for every trip change. A nil trip means it was
// reset.
func (p *Planner) SubscribeTrip(fn func(*model.TripBudget)) (cancel func()) {
	return p.tripCell.Subscribe(fn)
}

// Export returns the plan and trip for backup.
func (p *Planner) Export() BudgetData {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return BudgetData{BudgetPlan: copyPlan(p.plan), TripBudget: copyTrip(p.trip)}
}

// Import installs whichever of the plan and trip data carries. An imported
// plan keeps its inputs; its derived fields are recomputed against the
// current ledger.
func (p *Planner) Import(data BudgetData) error {
	if data.BudgetPlan != nil {
		in := inputOf(*data.BudgetPlan)
		in.TargetCurrency = model.NormalizeCode(in.TargetCurrency)
		if err := in.Validate(); err != nil {
			return err
		}
	}
	if data.TripBudget != nil {
		if err := validateTrip(*data.TripBudget); err != nil {
			return err
		}
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	var errs []error
	if data.BudgetPlan != nil {
		in := inputOf(*data.BudgetPlan)
		in.TargetCurrency = model.NormalizeCode(in.TargetCurrency)
		plan := Calculate(in, p.led.TotalIn(in.TargetCurrency))
		errs = append(errs, p.commitPlan(&plan))
	}
	if data.TripBudget != nil {
		trip := *data.TripBudget
		if trip.ID == "" {
			trip.ID = p.newID()
		}
		if trip.CreatedAt.IsZero() {
			trip.CreatedAt = p.now()
		}
		if trip.UpdatedAt.IsZero() {
			trip.UpdatedAt = trip.CreatedAt
		}
		errs = append(errs, p.commitTrip(&trip))
	}
	return errors.Join(errs...)
}

func copyTrip(t *model.TripBudget) *model.TripBudget {
	if t == nil {
		return nil
	}
	c := *t
	c.Expenses = append([]model.Expense(nil), t.Expenses...)
	c.BudgetPlan = copyPlan(t.BudgetPlan)
	return &c
}
