package budget

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
)

var (
	flightsShare       = decimal.RequireFromString("0.5")
	accommodationShare = decimal.RequireFromString("0.4")
)

const (
	minExpenses     = 3
	longLeadMonths  = 6
	shortLeadMonths = 3
)

// Recommend returns the advisories for the given state, in rule order.
// It has no side effects.
func Recommend(plan *model.BudgetPlan, stats model.Statistics, summary model.BudgetSummary, lang i18n.Language) []model.Recommendation {
	say := func(key string, args ...any) model.Recommendation {
		return model.Recommendation{Code: key, Text: i18n.T(lang, key, args...)}
	}

	if plan == nil {
		return []model.Recommendation{say(i18n.AdviceNoPlan)}
	}

	var out []model.Recommendation
	switch summary.BudgetStatus {
	case model.StatusInsufficient:
		out = append(out,
			say(i18n.AdviceInsufficient),
			say(i18n.AdviceSaveMonthly, plan.RequiredMonthlySavings.Round(0).IntPart()))
	case model.StatusAdequate:
		out = append(out, say(i18n.AdviceAdequate), say(i18n.AdviceReserve))
	case model.StatusComfortable:
		out = append(out, say(i18n.AdviceComfortable), say(i18n.AdviceExtras))
	}

	cats := summary.ExpensesByCategory
	if cats[model.CategoryFlights].GreaterThan(summary.TotalExpenses.Mul(flightsShare)) {
		out = append(out, say(i18n.AdviceFlights))
	}
	if cats[model.CategoryAccommodation].GreaterThan(summary.TotalExpenses.Mul(accommodationShare)) {
		out = append(out, say(i18n.AdviceAccommodation))
	}

	if stats.Count < minExpenses {
		out = append(out, say(i18n.AdviceFewExpenses))
	}

	switch {
	case plan.MonthsUntilTravel > longLeadMonths:
		out = append(out, say(i18n.AdvicePlentyOfTime))
	case plan.MonthsUntilTravel < shortLeadMonths:
		out = append(out, say(i18n.AdviceShortOnTime))
	}
	return out
}
