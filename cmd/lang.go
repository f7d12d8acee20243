package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripbudget/internal/i18n"
)

var langCmd = &cobra.Command{
	Use:       "lang [ar|en|toggle]",
	Short:     "Show or change the display language",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"ar", "en", "toggle"},
	RunE:      runLang,
}

func init() {
	rootCmd.AddCommand(langCmd)
}

func runLang(_ *cobra.Command, args []string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()
	pref := s.eng.Language

	if len(args) == 1 {
		if args[0] == "toggle" {
			_, err = pref.Toggle()
		} else {
			var l i18n.Language
			if l, err = i18n.Parse(args[0]); err != nil {
				return err
			}
			err = pref.Set(l)
		}
		if err := report(err); err != nil {
			return err
		}
	}

	l := pref.Current()
	dir := "ltr"
	if l.IsRTL() {
		dir = "rtl"
	}
	fmt.Printf("  %s (%s)  %s\n", l, dir, i18n.T(l, i18n.KeyAppTitle))
	return nil
}
