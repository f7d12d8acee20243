package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPlan holds the savings inputs and the verdict derived from them.
// Derived fields are always recomputed from the inputs, never patched.
type BudgetPlan struct {
	CurrentSavings    decimal.Decimal `json:"currentSavings"`
	MonthlyIncome     decimal.Decimal `json:"monthlyIncome"`
	MonthsUntilTravel int             `json:"monthsUntilTravel"`
	TotalExpenses     decimal.Decimal `json:"totalExpenses"`
	TargetCurrency    string          `json:"targetCurrency"`

	RequiredMonthlySavings decimal.Decimal `json:"requiredMonthlySavings"`
	IsAffordable           bool            `json:"isAffordable"`
	Surplus                decimal.Decimal `json:"surplus"`
	SavingsGoal            decimal.Decimal `json:"savingsGoal"`
}

// BudgetStatus is the qualitative band a plan falls into.
type BudgetStatus string

const (
	StatusInsufficient BudgetStatus = "insufficient"
	StatusAdequate     BudgetStatus = "adequate"
	StatusComfortable  BudgetStatus = "comfortable"
	StatusOverBudget   BudgetStatus = "over_budget"
)

// SavingsCalculation is an on-demand savings projection. Not persisted.
type SavingsCalculation struct {
	CurrentAmount             decimal.Decimal `json:"currentAmount"`
	TargetAmount              decimal.Decimal `json:"targetAmount"`
	MonthsRemaining           int             `json:"monthsRemaining"`
	MonthlyRequirement        decimal.Decimal `json:"monthlyRequirement"`
	IsAchievable              bool            `json:"isAchievable"`
	RecommendedMonthlySavings decimal.Decimal `json:"recommendedMonthlySavings"`
	ProjectedTotal            decimal.Decimal `json:"projectedTotal"`
}

// BudgetSummary combines ledger aggregates with the plan status.
// Totals here are raw cross-currency sums.
type BudgetSummary struct {
	TotalExpenses             decimal.Decimal              `json:"totalExpenses"`
	ExpensesByCategory        map[Category]decimal.Decimal `json:"expensesByCategory"`
	CurrencyBreakdown         map[string]decimal.Decimal   `json:"currencyBreakdown"`
	AverageExpensePerCategory decimal.Decimal              `json:"averageExpensePerCategory"`
	MostExpensiveCategory     Category                     `json:"mostExpensiveCategory"`
	BudgetStatus              BudgetStatus                 `json:"budgetStatus"`
}

// TripBudget is the single trip the plan is for.
type TripBudget struct {
	ID             string      `json:"id"`
	Destination    string      `json:"destination"`
	TargetCurrency string      `json:"targetCurrency"`
	DepartureDate  time.Time   `json:"departureDate"`
	Expenses       []Expense   `json:"expenses"`
	BudgetPlan     *BudgetPlan `json:"budgetPlan,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Recommendation is one advisory line produced from the current state.
type Recommendation struct {
	Code string `json:"code"`
	Text string `json:"text"`
}
