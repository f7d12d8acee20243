package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripbudget/internal/model"
)

// RawTotal sums face values across currencies. The result mixes units and
// is only meaningful for display or debugging.
func RawTotal(expenses []model.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// DistributionByCategory sums raw amounts per category.
func DistributionByCategory(expenses []model.Expense) map[model.Category]decimal.Decimal {
	out := make(map[model.Category]decimal.Decimal)
	for _, e := range expenses {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}

// DistributionByCurrency sums raw amounts per currency code.
func DistributionByCurrency(expenses []model.Expense) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		out[e.Currency] = out[e.Currency].Add(e.Amount)
	}
	return out
}

// Statistics computes ledger-wide aggregates. Totals are raw sums rounded
// to cents. On a frequency tie the key seen first wins.
func Statistics(expenses []model.Expense) model.Statistics {
	if len(expenses) == 0 {
		return model.Statistics{}
	}

	total := RawTotal(expenses)
	avg := total.Div(decimal.NewFromInt(int64(len(expenses))))

	cats := make([]string, 0, len(expenses))
	curs := make([]string, 0, len(expenses))
	for _, e := range expenses {
		cats = append(cats, string(e.Category))
		curs = append(curs, e.Currency)
	}

	return model.Statistics{
		TotalExpenses:    total.Round(2),
		AverageExpense:   avg.Round(2),
		Count:            len(expenses),
		TopCategory:      model.Category(mostFrequent(cats)),
		MostUsedCurrency: mostFrequent(curs),
	}
}

func mostFrequent(keys []string) string {
	counts := make(map[string]int)
	var order []string
	for _, k := range keys {
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	best := ""
	for _, k := range order {
		if best == "" || counts[k] > counts[best] {
			best = k
		}
	}
	return best
}
