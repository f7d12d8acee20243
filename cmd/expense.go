package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripbudget/internal/budget"
	"github.com/theirongolddev/tripbudget/internal/cli"
	"github.com/theirongolddev/tripbudget/internal/currency"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/tui"
)

var (
	flagExpName        string
	flagExpAmount      string
	flagExpCurrency    string
	flagExpCategory    string
	flagExpInteractive bool
	flagExpFilter      string
	flagYes            bool
)

var expenseCmd = &cobra.Command{
	Use:     "expense",
	Aliases: []string{"expenses", "e"},
	Short:   "Manage trip expenses",
}

var expenseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an expected expense",
	Args:  cobra.NoArgs,
	RunE:  runExpenseAdd,
}

var expenseListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List expenses converted to the target currency",
	Args:    cobra.NoArgs,
	RunE:    runExpenseList,
}

var expenseUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change fields of an expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpenseUpdate,
}

var expenseRemoveCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"remove"},
	Short:   "Remove an expense",
	Args:    cobra.ExactArgs(1),
	RunE:    runExpenseRemove,
}

var expenseClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every expense",
	Args:  cobra.NoArgs,
	RunE:  runExpenseClear,
}

var expenseImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace expenses (and optionally plan and trip) from a JSON backup; - reads stdin",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpenseImport,
}

var expenseExportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Write expenses, plan and trip as a JSON backup",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExpenseExport,
}

func init() {
	for _, c := range []*cobra.Command{expenseAddCmd, expenseUpdateCmd} {
		c.Flags().StringVar(&flagExpName, "name", "", "Expense name")
		c.Flags().StringVar(&flagExpAmount, "amount", "", "Amount, e.g. 1250.50")
		c.Flags().StringVar(&flagExpCurrency, "currency", "", "3-letter currency code")
		c.Flags().StringVar(&flagExpCategory, "category", "", categoryHelp())
	}
	expenseAddCmd.Flags().BoolVarP(&flagExpInteractive, "interactive", "i", false, "Fill the expense in a form")
	expenseListCmd.Flags().StringVar(&flagExpFilter, "category", "", "Only this category")
	expenseClearCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Do not ask for confirmation")

	expenseCmd.AddCommand(expenseAddCmd, expenseListCmd, expenseUpdateCmd, expenseRemoveCmd,
		expenseClearCmd, expenseImportCmd, expenseExportCmd)
	rootCmd.AddCommand(expenseCmd)
}

func categoryHelp() string {
	keys := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		keys[i] = string(c.Key)
	}
	return "Category: " + strings.Join(keys, ", ")
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &model.ValidationError{Field: "amount", Message: fmt.Sprintf("%q is not a number", s)}
	}
	return d, nil
}

func runExpenseAdd(_ *cobra.Command, _ []string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()

	var in model.ExpenseInput
	if flagExpInteractive {
		vals := tui.ExpenseValues{Name: flagExpName, Amount: flagExpAmount, Currency: flagExpCurrency, Category: flagExpCategory}
		if vals.Currency == "" {
			vals.Currency = s.target
		}
		if err := tui.NewExpenseForm(&vals, s.lang()).Run(); err != nil {
			return err
		}
		if in, err = vals.Input(); err != nil {
			return err
		}
	} else {
		amount, err := parseAmount(flagExpAmount)
		if err != nil {
			return err
		}
		cur := flagExpCurrency
		if cur == "" {
			cur = s.target
		}
		cat := flagExpCategory
		if cat == "" {
			cat = string(model.CategoryOther)
		}
		in = model.ExpenseInput{Name: flagExpName, Amount: amount, Currency: cur, Category: model.Category(cat)}
	}

	e, err := s.eng.Ledger.Add(in)
	if e.ID == "" {
		return err
	}
	if err := report(err); err != nil {
		return err
	}
	fmt.Printf("  Added %s  %s  %s\n", shortID(e.ID), e.Name,
		currency.FormatAmount(e.Amount, e.Currency, s.lang()))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveID accepts a full ID or a unique prefix of one.
func resolveID(s *session, prefix string) (string, error) {
	if _, ok := s.eng.Ledger.Get(prefix); ok {
		return prefix, nil
	}
	var match string
	for _, e := range s.eng.Ledger.List() {
		if strings.HasPrefix(e.ID, prefix) {
			if match != "" {
				return "", &model.ValidationError{Field: "id", Message: "prefix " + prefix + " is ambiguous"}
			}
			match = e.ID
		}
	}
	if match == "" {
		return "", &model.NotFoundError{Resource: "expense", ID: prefix}
	}
	return match, nil
}

func runExpenseList(_ *cobra.Command, _ []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.close()
	lang := s.lang()

	items := s.eng.Ledger.Converted(s.target)
	if flagExpFilter != "" {
		cat := model.Category(flagExpFilter)
		if !cat.Valid() {
			return &model.ValidationError{Field: "category", Message: "unknown category " + flagExpFilter}
		}
		n := 0
		for _, e := range items {
			if e.Category == cat {
				items[n] = e
				n++
			}
		}
		items = items[:n]
	}

	if len(items) == 0 {
		fmt.Println()
		fmt.Println("  " + i18n.T(lang, i18n.KeyExpensesEmpty))
		fmt.Println()
		return nil
	}

	total := decimal.Zero
	rows := make([][]string, 0, len(items)+2)
	for _, e := range items {
		total = total.Add(e.ConvertedAmount)
		rows = append(rows, []string{
			shortID(e.ID) + "  " + cli.Truncate(e.Name, 32),
			i18n.CategoryName(lang, e.Category),
			currency.FormatAmount(e.Amount, e.Currency, lang),
			currency.FormatAmount(e.ConvertedAmount, s.target, lang),
		})
	}
	rows = append(rows, []string{"---"}, []string{
		i18n.T(lang, i18n.KeyTotal), "", "", currency.FormatAmount(total.Round(2), s.target, lang),
	})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   i18n.T(lang, i18n.KeyExpenses),
		Headers: []string{i18n.T(lang, i18n.KeyName), i18n.T(lang, i18n.KeyCategory), i18n.T(lang, i18n.KeyAmount), s.target},
		Rows:    rows,
	}))
	return nil
}

func runExpenseUpdate(cmd *cobra.Command, args []string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()

	id, err := resolveID(s, args[0])
	if err != nil {
		return err
	}

	var patch model.ExpensePatch
	flags := cmd.Flags()
	if flags.Changed("name") {
		patch.Name = &flagExpName
	}
	if flags.Changed("amount") {
		amount, err := parseAmount(flagExpAmount)
		if err != nil {
			return err
		}
		patch.Amount = &amount
	}
	if flags.Changed("currency") {
		patch.Currency = &flagExpCurrency
	}
	if flags.Changed("category") {
		cat := model.Category(flagExpCategory)
		patch.Category = &cat
	}

	e, err := s.eng.Ledger.Update(id, patch)
	if e.ID == "" {
		return err
	}
	if err := report(err); err != nil {
		return err
	}
	fmt.Printf("  Updated %s  %s  %s\n", shortID(e.ID), e.Name,
		currency.FormatAmount(e.Amount, e.Currency, s.lang()))
	return nil
}

func runExpenseRemove(_ *cobra.Command, args []string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()

	id, err := resolveID(s, args[0])
	if err != nil {
		return err
	}
	removed, err := s.eng.Ledger.Remove(id)
	if !removed {
		return &model.NotFoundError{Resource: "expense", ID: args[0]}
	}
	if err := report(err); err != nil {
		return err
	}
	fmt.Printf("  Removed %s\n", shortID(id))
	return nil
}

func confirm(title string) (bool, error) {
	if flagYes {
		return true, nil
	}
	ok := false
	err := huh.NewConfirm().Title(title).Value(&ok).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func runExpenseClear(_ *cobra.Command, _ []string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()

	ok, err := confirm(fmt.Sprintf("Remove all %d expenses?", s.eng.Ledger.Len()))
	if err != nil || !ok {
		return err
	}
	if err := report(s.eng.Ledger.Clear()); err != nil {
		return err
	}
	fmt.Println("  All expenses removed")
	return nil
}

// backup is the JSON export format. Import also accepts a bare expense
// array.
type backup struct {
	Expenses []model.Expense   `json:"expenses"`
	Budget   budget.BudgetData `json:"budget"`
}

func runExpenseImport(_ *cobra.Command, args []string) error {
	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		//nolint:gosec // import path is supplied by the local user
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}

	var b backup
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(data, &b.Expenses)
	} else {
		err = json.Unmarshal(data, &b)
	}
	if err != nil {
		return fmt.Errorf("parsing backup: %w", err)
	}

	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()

	if err := report(s.eng.Ledger.Import(b.Expenses)); err != nil {
		return err
	}
	if err := report(s.eng.Planner.Import(b.Budget)); err != nil {
		return err
	}
	fmt.Printf("  Imported %d expenses\n", len(b.Expenses))
	return nil
}

func runExpenseExport(_ *cobra.Command, args []string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()

	b := backup{Expenses: s.eng.Ledger.Export(), Budget: s.eng.Planner.Export()}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if len(args) == 0 || args[0] == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(args[0], data, 0o600); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Wrote %d expenses to %s\n", len(b.Expenses), args[0])
	}
	return nil
}
