package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripbudget/internal/cli"
	"github.com/theirongolddev/tripbudget/internal/currency"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/rates"
)

var flagRatesAll bool

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show exchange rates against the target currency",
	Args:  cobra.NoArgs,
	RunE:  runRatesShow,
}

var ratesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show exchange rates against the target currency",
	Args:  cobra.NoArgs,
	RunE:  runRatesShow,
}

var ratesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch live exchange rates now",
	Args:  cobra.NoArgs,
	RunE:  runRatesRefresh,
}

var ratesConvertCmd = &cobra.Command{
	Use:     "convert AMOUNT FROM TO",
	Short:   "Convert an amount between currencies",
	Example: "  tripbudget rates convert 1200 SAR EUR",
	Args:    cobra.ExactArgs(3),
	RunE:    runRatesConvert,
}

func init() {
	ratesCmd.PersistentFlags().BoolVar(&flagRatesAll, "all", false, "List every known currency")
	ratesCmd.AddCommand(ratesShowCmd, ratesRefreshCmd, ratesConvertCmd)
	rootCmd.AddCommand(ratesCmd)
}

func printRatesHeader(s *session) {
	rp := s.eng.Rates
	tbl := rp.Table()

	label := i18n.T(s.lang(), i18n.KeyRatesUpdated)
	if tbl.Origin == rates.OriginFallback {
		label = i18n.T(s.lang(), i18n.KeyRatesOffline)
	}
	age := "never"
	if at, ok := rp.LastUpdated(); ok {
		age = cli.FormatAge(at, time.Now())
	}
	fmt.Print(cli.RenderField(label, fmt.Sprintf("%s, base %s, %d rates", age, tbl.Base, tbl.Len())))
}

func runRatesShow(_ *cobra.Command, _ []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.close()
	lang := s.lang()

	list := currency.Popular()
	if flagRatesAll {
		list = currency.All()
	}

	rows := make([][]string, 0, len(list))
	for _, c := range list {
		if c.Code == s.target {
			continue
		}
		rows = append(rows, []string{
			fmt.Sprintf("%s  %s", c.Code, c.LocalName(lang)),
			cli.FormatRate(s.eng.Rates.ExchangeRate(s.target, c.Code)),
			cli.FormatRate(s.eng.Rates.ExchangeRate(c.Code, s.target)),
		})
	}

	fmt.Println()
	printRatesHeader(s)
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{i18n.T(lang, i18n.KeyCurrency), "1 " + s.target + " =", "= " + s.target},
		Rows:    rows,
	}))
	return nil
}

func runRatesRefresh(_ *cobra.Command, _ []string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := commandContext()
	defer cancel()
	err = s.eng.Rates.Refresh(ctx)
	if errors.Is(err, rates.ErrNoSource) {
		return err
	}
	if err := report(err); err != nil {
		return err
	}
	if err == nil {
		fmt.Println("  " + i18n.T(s.lang(), i18n.KeyRatesUpdated))
	}
	printRatesHeader(s)
	return nil
}

func runRatesConvert(_ *cobra.Command, args []string) error {
	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	from, to := model.NormalizeCode(args[1]), model.NormalizeCode(args[2])
	for _, code := range []string{from, to} {
		if !model.ValidCode(code) {
			return &model.ValidationError{Field: "currency", Message: code + " is not a 3-letter code"}
		}
	}

	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.close()
	lang := s.lang()

	out, err := s.eng.Rates.ConvertChecked(amount, from, to)
	if err := report(err); err != nil {
		return err
	}
	fmt.Printf("  %s = %s\n", currency.FormatAmount(amount, from, lang), currency.FormatAmount(out, to, lang))
	if !flagQuiet {
		fmt.Println("  " + cli.RenderMuted(fmt.Sprintf("1 %s = %s %s", from, cli.FormatRate(s.eng.Rates.ExchangeRate(from, to)), to)))
	}
	return nil
}
