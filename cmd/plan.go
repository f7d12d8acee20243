package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripbudget/internal/budget"
	"github.com/theirongolddev/tripbudget/internal/cli"
	"github.com/theirongolddev/tripbudget/internal/currency"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
)

var (
	flagPlanSavings  string
	flagPlanIncome   string
	flagPlanMonths   int
	flagPlanCurrency string

	flagProjTarget  string
	flagProjCurrent string
	flagProjMonths  int
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the savings plan",
	Args:  cobra.NoArgs,
	RunE:  runPlanShow,
}

var planCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create (or replace) the savings plan",
	Args:  cobra.NoArgs,
	RunE:  runPlanCreate,
}

var planUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change plan inputs and recompute",
	Args:  cobra.NoArgs,
	RunE:  runPlanUpdate,
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the savings plan",
	Args:  cobra.NoArgs,
	RunE:  runPlanShow,
}

var planResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the plan and the trip",
	Args:  cobra.NoArgs,
	RunE:  runPlanReset,
}

var planSavingsCmd = &cobra.Command{
	Use:   "savings",
	Short: "Project saving toward an amount",
	Args:  cobra.NoArgs,
	RunE:  runPlanSavings,
}

func init() {
	for _, c := range []*cobra.Command{planCreateCmd, planUpdateCmd} {
		c.Flags().StringVar(&flagPlanSavings, "savings", "0", "Current savings")
		c.Flags().StringVar(&flagPlanIncome, "income", "0", "Monthly income")
		c.Flags().IntVar(&flagPlanMonths, "months", 0, "Months until travel")
		c.Flags().StringVar(&flagPlanCurrency, "currency", "", "Plan currency (default target currency)")
	}
	planSavingsCmd.Flags().StringVar(&flagProjTarget, "target-amount", "", "Amount to reach (default the expense total)")
	planSavingsCmd.Flags().StringVar(&flagProjCurrent, "current", "", "Amount saved so far (default plan savings)")
	planSavingsCmd.Flags().IntVar(&flagProjMonths, "months", -1, "Months to save (default plan months)")
	planResetCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Do not ask for confirmation")

	planCmd.AddCommand(planCreateCmd, planUpdateCmd, planShowCmd, planResetCmd, planSavingsCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlanCreate(_ *cobra.Command, _ []string) error {
	savings, err := parseAmount(flagPlanSavings)
	if err != nil {
		return err
	}
	income, err := parseAmount(flagPlanIncome)
	if err != nil {
		return err
	}

	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.close()

	cur := flagPlanCurrency
	if cur == "" {
		cur = s.target
	}
	plan, err := s.eng.Planner.Create(budget.PlanInput{
		CurrentSavings:    savings,
		MonthlyIncome:     income,
		MonthsUntilTravel: flagPlanMonths,
		TargetCurrency:    model.NormalizeCode(cur),
	})
	if err := report(err); err != nil {
		return err
	}
	printPlan(s, plan)
	return nil
}

func runPlanUpdate(cmd *cobra.Command, _ []string) error {
	var patch budget.PlanPatch
	flags := cmd.Flags()
	if flags.Changed("savings") {
		d, err := parseAmount(flagPlanSavings)
		if err != nil {
			return err
		}
		patch.CurrentSavings = &d
	}
	if flags.Changed("income") {
		d, err := parseAmount(flagPlanIncome)
		if err != nil {
			return err
		}
		patch.MonthlyIncome = &d
	}
	if flags.Changed("months") {
		patch.MonthsUntilTravel = &flagPlanMonths
	}
	if flags.Changed("currency") {
		code := model.NormalizeCode(flagPlanCurrency)
		patch.TargetCurrency = &code
	}

	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.close()

	plan, err := s.eng.Planner.Update(patch)
	if plan == nil {
		if err != nil {
			return err
		}
		fmt.Println("  " + i18n.T(s.lang(), i18n.AdviceNoPlan))
		return nil
	}
	if err := report(err); err != nil {
		return err
	}
	printPlan(s, *plan)
	return nil
}

func runPlanShow(_ *cobra.Command, _ []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.close()

	plan, ok := s.eng.Planner.Plan()
	if !ok {
		fmt.Println()
		fmt.Println("  " + i18n.T(s.lang(), i18n.AdviceNoPlan))
		fmt.Println("  " + cli.RenderMuted("tripbudget plan create --savings 5000 --income 8000 --months 6"))
		fmt.Println()
		return nil
	}
	printPlan(s, plan)
	return nil
}

func printPlan(s *session, plan model.BudgetPlan) {
	lang := s.lang()
	money := func(d decimal.Decimal) string { return currency.FormatAmount(d, plan.TargetCurrency, lang) }

	verdict := i18n.T(lang, i18n.KeyPlanNeedSavings)
	if plan.IsAffordable {
		verdict = i18n.T(lang, i18n.KeyPlanAffordable)
	}
	balanceKey := i18n.KeySurplus
	if plan.Surplus.IsNegative() {
		balanceKey = i18n.KeyDeficit
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(verdict))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Rows: [][]string{
			{i18n.T(lang, i18n.KeyExpensesTotal), money(plan.TotalExpenses)},
			{i18n.T(lang, i18n.KeyCurrentSavings), money(plan.CurrentSavings)},
			{i18n.T(lang, i18n.KeyMonthlyIncome), money(plan.MonthlyIncome)},
			{i18n.T(lang, i18n.KeyMonthsUntil), fmt.Sprint(plan.MonthsUntilTravel)},
			{"---"},
			{i18n.T(lang, i18n.KeySavingsGoal), money(plan.SavingsGoal)},
			{i18n.T(lang, i18n.KeyRequiredMonthly), money(plan.RequiredMonthlySavings)},
			{i18n.T(lang, balanceKey), cli.FormatSigned(plan.Surplus, plan.TargetCurrency, lang)},
		},
	}))
	fmt.Print(cli.RenderField(i18n.T(lang, i18n.KeyStatus), cli.RenderStatus(budget.Status(plan), lang)))
}

func runPlanReset(_ *cobra.Command, _ []string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()

	ok, err := confirm("Delete the budget plan and trip?")
	if err != nil || !ok {
		return err
	}
	if err := report(s.eng.Planner.Reset()); err != nil {
		return err
	}
	fmt.Println("  Plan and trip removed")
	return nil
}

func runPlanSavings(_ *cobra.Command, _ []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.close()
	lang := s.lang()

	code := s.target
	target := s.eng.Ledger.TotalIn(code)
	current := decimal.Zero
	months := 0
	if plan, ok := s.eng.Planner.Plan(); ok {
		code = plan.TargetCurrency
		target = plan.TotalExpenses
		current = plan.CurrentSavings
		months = plan.MonthsUntilTravel
	}
	if flagProjTarget != "" {
		if target, err = parseAmount(flagProjTarget); err != nil {
			return err
		}
	}
	if flagProjCurrent != "" {
		if current, err = parseAmount(flagProjCurrent); err != nil {
			return err
		}
	}
	if flagProjMonths >= 0 {
		months = flagProjMonths
	}

	calc := s.eng.Planner.ProjectSavings(target, current, months)
	money := func(d decimal.Decimal) string { return currency.FormatAmount(d, code, lang) }

	achievable := "no"
	if calc.IsAchievable {
		achievable = "yes"
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Rows: [][]string{
			{"Target", money(calc.TargetAmount)},
			{"Saved", money(calc.CurrentAmount)},
			{"Months", fmt.Sprint(calc.MonthsRemaining)},
			{"---"},
			{"Monthly requirement", money(calc.MonthlyRequirement)},
			{"Recommended monthly", money(calc.RecommendedMonthlySavings)},
			{"Projected total", money(calc.ProjectedTotal)},
			{"Achievable", achievable},
		},
	}))
	return nil
}
