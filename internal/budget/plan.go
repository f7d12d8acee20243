package budget

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripbudget/internal/currency"
	"github.com/theirongolddev/tripbudget/internal/model"
)

// Income shares used by the plan math.
var (
	// AffordableShare is the most of monthly income a plan may ask to save.
	AffordableShare = decimal.RequireFromString("0.3")
	// AchievableShare caps the monthly requirement of a savings projection.
	AchievableShare = decimal.RequireFromString("0.4")
	// SafetyMargin scales the monthly requirement into a recommendation.
	SafetyMargin = decimal.RequireFromString("1.1")

	adequateRatio     = decimal.RequireFromString("0.5")
	insufficientRatio = decimal.RequireFromString("0.7")
)

// PlanInput is what the user supplies for a plan.
type PlanInput struct {
	CurrentSavings    decimal.Decimal `json:"currentSavings"`
	MonthlyIncome     decimal.Decimal `json:"monthlyIncome"`
	MonthsUntilTravel int             `json:"monthsUntilTravel"`
	TargetCurrency    string          `json:"targetCurrency"`
}

// PlanPatch changes some plan inputs. Nil fields are kept.
type PlanPatch struct {
	CurrentSavings    *decimal.Decimal
	MonthlyIncome     *decimal.Decimal
	MonthsUntilTravel *int
	TargetCurrency    *string
}

func (p PlanPatch) apply(in PlanInput) PlanInput {
	if p.CurrentSavings != nil {
		in.CurrentSavings = *p.CurrentSavings
	}
	if p.MonthlyIncome != nil {
		in.MonthlyIncome = *p.MonthlyIncome
	}
	if p.MonthsUntilTravel != nil {
		in.MonthsUntilTravel = *p.MonthsUntilTravel
	}
	if p.TargetCurrency != nil {
		in.TargetCurrency = *p.TargetCurrency
	}
	return in
}

// Validate checks the plan inputs.
func (in PlanInput) Validate() error {
	switch {
	case in.CurrentSavings.IsNegative():
		return &model.ValidationError{Field: "currentSavings", Message: "must not be negative"}
	case in.MonthlyIncome.IsNegative():
		return &model.ValidationError{Field: "monthlyIncome", Message: "must not be negative"}
	case in.MonthsUntilTravel < 0:
		return &model.ValidationError{Field: "monthsUntilTravel", Message: "must not be negative"}
	case !model.ValidCode(in.TargetCurrency) || !currency.Known(in.TargetCurrency):
		return &model.ValidationError{Field: "targetCurrency", Message: "unknown currency " + in.TargetCurrency}
	}
	return nil
}

func inputOf(p model.BudgetPlan) PlanInput {
	return PlanInput{
		CurrentSavings:    p.CurrentSavings,
		MonthlyIncome:     p.MonthlyIncome,
		MonthsUntilTravel: p.MonthsUntilTravel,
		TargetCurrency:    p.TargetCurrency,
	}
}

// Calculate derives a plan from its inputs and the trip total in the
// plan's currency.
//
// The affordability check compares the projected savings rounded to cents,
// so a goal that divides unevenly over the months still counts as covered.
func Calculate(in PlanInput, total decimal.Decimal) model.BudgetPlan {
	goal := decimal.Max(decimal.Zero, total.Sub(in.CurrentSavings))

	required := goal
	if in.MonthsUntilTravel > 0 {
		required = goal.Div(decimal.NewFromInt(int64(in.MonthsUntilTravel)))
	}
	months := decimal.NewFromInt(int64(in.MonthsUntilTravel))
	// Projected savings use the exact requirement; the stored requirement and
	// the income cap check use whole cents.
	projected := in.CurrentSavings.Add(required.Mul(months)).Round(2)
	required = required.Round(2)

	affordable := projected.GreaterThanOrEqual(total) &&
		required.LessThanOrEqual(in.MonthlyIncome.Mul(AffordableShare))

	return model.BudgetPlan{
		CurrentSavings:         in.CurrentSavings,
		MonthlyIncome:          in.MonthlyIncome,
		MonthsUntilTravel:      in.MonthsUntilTravel,
		TotalExpenses:          total,
		TargetCurrency:         in.TargetCurrency,
		RequiredMonthlySavings: required,
		IsAffordable:           affordable,
		Surplus:                in.CurrentSavings.Sub(total),
		SavingsGoal:            goal,
	}
}

// Status places a plan on the status ladder. An unaffordable plan is
// insufficient; otherwise the band follows the share of income that must be
// saved: up to 30% comfortable, up to 50% adequate, up to 70% insufficient,
// above that over budget. With no income the share is 0 when nothing needs
// saving and unbounded otherwise.
func Status(plan model.BudgetPlan) model.BudgetStatus {
	if !plan.IsAffordable {
		return model.StatusInsufficient
	}

	var ratio decimal.Decimal
	switch {
	case plan.MonthlyIncome.IsPositive():
		ratio = plan.RequiredMonthlySavings.Div(plan.MonthlyIncome)
	case plan.RequiredMonthlySavings.IsPositive():
		return model.StatusOverBudget
	}

	switch {
	case ratio.LessThanOrEqual(AffordableShare):
		return model.StatusComfortable
	case ratio.LessThanOrEqual(adequateRatio):
		return model.StatusAdequate
	case ratio.LessThanOrEqual(insufficientRatio):
		return model.StatusInsufficient
	default:
		return model.StatusOverBudget
	}
}

// Project computes a savings projection. maxMonthly bounds what counts as
// achievable; nil means unbounded.
func Project(target, current decimal.Decimal, months int, maxMonthly *decimal.Decimal) model.SavingsCalculation {
	remaining := decimal.Max(decimal.Zero, target.Sub(current))
	monthly := remaining
	if months > 0 {
		monthly = remaining.Div(decimal.NewFromInt(int64(months)))
	}
	recommended := monthly.Mul(SafetyMargin)
	projected := current.Add(recommended.Mul(decimal.NewFromInt(int64(months))))

	achievable := true
	if maxMonthly != nil {
		achievable = monthly.LessThanOrEqual(*maxMonthly)
	}

	return model.SavingsCalculation{
		CurrentAmount:             current,
		TargetAmount:              target,
		MonthsRemaining:           months,
		MonthlyRequirement:        monthly.Round(2),
		IsAchievable:              achievable,
		RecommendedMonthlySavings: recommended.Round(2),
		ProjectedTotal:            projected.Round(2),
	}
}
