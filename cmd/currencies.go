package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripbudget/internal/cli"
	"github.com/theirongolddev/tripbudget/internal/currency"
	"github.com/theirongolddev/tripbudget/internal/i18n"
)

var currenciesCmd = &cobra.Command{
	Use:   "currencies [query]",
	Short: "List supported currencies, optionally filtered",
	Args:  cobra.ArbitraryArgs,
	RunE:  runCurrencies,
}

func init() {
	rootCmd.AddCommand(currenciesCmd)
}

func runCurrencies(_ *cobra.Command, args []string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()
	lang := s.lang()

	found := currency.Search(strings.Join(args, " "), lang)
	if len(found) == 0 {
		fmt.Println("  No matching currencies")
		return nil
	}

	rows := make([][]string, len(found))
	for i, c := range found {
		rows[i] = []string{c.Code, c.LocalName(lang), c.Symbol}
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{i18n.T(lang, i18n.KeyCurrency), i18n.T(lang, i18n.KeyName), "Symbol"},
		Rows:    rows,
	}))
	return nil
}
