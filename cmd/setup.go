package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripbudget/internal/config"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	fmt.Println()
	fmt.Println("  Welcome to tripbudget!")
	fmt.Println()

	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(&vals).Run(); err != nil {
		return err
	}
	vals.Apply(&cfg)

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	// The saved preference is what every command reads at startup.
	if l, err := i18n.Parse(cfg.General.Language); err == nil {
		s, err := openSession(false)
		if err != nil {
			return err
		}
		err = report(s.eng.Language.Set(l))
		s.close()
		if err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `tripbudget setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
