package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripbudget/internal/cli"
	"github.com/theirongolddev/tripbudget/internal/currency"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Expense statistics, breakdowns, plan status and advice",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.close()
	lang := s.lang()
	led := s.eng.Ledger

	fmt.Println()
	fmt.Println(cli.RenderTitle(i18n.T(lang, i18n.KeyAppTitle)))
	fmt.Println()

	if led.Len() == 0 {
		fmt.Println("  " + i18n.T(lang, i18n.KeyExpensesEmpty))
		fmt.Println("  " + cli.RenderMuted("tripbudget expense add --name Hotel --amount 1200 --currency SAR --category accommodation"))
		fmt.Println()
		return nil
	}

	stats := led.Statistics()
	total := led.TotalIn(s.target)
	fmt.Print(cli.RenderTable(cli.Table{
		Rows: [][]string{
			{i18n.T(lang, i18n.KeyExpensesTotal), currency.FormatAmount(total, s.target, lang)},
			{i18n.T(lang, i18n.KeyExpenses), fmt.Sprint(stats.Count)},
			{"Top category", i18n.CategoryName(lang, stats.TopCategory)},
			{"Most used currency", stats.MostUsedCurrency},
		},
	}))
	fmt.Println()

	// Per-category totals converted so the bars compare like with like.
	byCat := make(map[model.Category]decimal.Decimal)
	for _, e := range led.Converted(s.target) {
		byCat[e.Category] = byCat[e.Category].Add(e.ConvertedAmount)
	}
	maxVal := 0.0
	for _, v := range byCat {
		maxVal = max(maxVal, v.InexactFloat64())
	}
	rows := make([][]string, 0, len(byCat))
	for _, info := range model.Categories {
		v, ok := byCat[info.Key]
		if !ok {
			continue
		}
		share := 0.0
		if total.IsPositive() {
			share = v.Div(total).InexactFloat64()
		}
		rows = append(rows, []string{
			info.Icon + " " + i18n.CategoryName(lang, info.Key),
			currency.FormatAmount(v, s.target, lang),
			cli.FormatPercent(share),
			cli.RenderCategoryBar(info.Key, v.InexactFloat64(), maxVal, 20),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   i18n.T(lang, i18n.KeyCategory),
		Headers: []string{i18n.T(lang, i18n.KeyCategory), s.target, "%", ""},
		Rows:    rows,
	}))
	fmt.Println()

	byCur := led.DistributionByCurrency()
	curRows := make([][]string, 0, len(byCur))
	for _, c := range currency.All() {
		if v, ok := byCur[c.Code]; ok {
			curRows = append(curRows, []string{c.Code + "  " + c.LocalName(lang), currency.FormatAmount(v, c.Code, lang)})
			delete(byCur, c.Code)
		}
	}
	for code, v := range byCur {
		curRows = append(curRows, []string{code, currency.FormatAmount(v, code, lang)})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   i18n.T(lang, i18n.KeyCurrency),
		Headers: []string{i18n.T(lang, i18n.KeyCurrency), i18n.T(lang, i18n.KeyAmount)},
		Rows:    curRows,
	}))
	fmt.Println()

	if _, ok := s.eng.Planner.Plan(); ok {
		fmt.Print(cli.RenderField(i18n.T(lang, i18n.KeyStatus), cli.RenderStatus(s.eng.Planner.CurrentStatus(), lang)))
		fmt.Println()
	}

	fmt.Println("  " + i18n.T(lang, i18n.KeyAdvice))
	for _, r := range s.eng.Planner.Recommendations(lang) {
		fmt.Println("    " + r.Text)
	}
	fmt.Println()
	return nil
}
