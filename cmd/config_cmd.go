package cmd

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripbudget/internal/cli"
	"github.com/theirongolddev/tripbudget/internal/config"
	"github.com/theirongolddev/tripbudget/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Target currency: %s\n", cfg.General.TargetCurrency)
	if cfg.General.Language != "" {
		fmt.Printf("    Language:        %s\n", cfg.General.Language)
	} else {
		fmt.Println("    Language:        from saved preference")
	}
	fmt.Println()

	fmt.Println("  [Rates]")
	fmt.Printf("    URL:             %s\n", cfg.Rates.URL)
	fmt.Printf("    Base currency:   %s\n", cfg.Rates.BaseCurrency)
	fmt.Printf("    Timeout:         %ds\n", cfg.Rates.TimeoutSeconds)
	fmt.Printf("    Max retries:     %d\n", cfg.Rates.MaxRetries)
	fmt.Printf("    Refresh every:   %dm\n", cfg.Rates.RefreshMinutes)
	fmt.Println()

	fmt.Println("  [Store]")
	path := cfg.StorePath()
	if flagDB != "" {
		path = flagDB
	}
	fmt.Printf("    Database: %s\n", path)
	printStoredKeys(path)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:   %s\n", cfg.Appearance.Theme)
	fmt.Printf("    Refresh: %ds\n", cfg.Appearance.RefreshIntervalSec)
	fmt.Println()

	fmt.Println("  Run `tripbudget setup` to reconfigure.")
	return nil
}

// printStoredKeys lists the blobs in an existing database. A missing file
// is left alone rather than created.
func printStoredKeys(path string) {
	if _, err := os.Stat(path); err != nil {
		fmt.Println("    (not created yet)")
		return
	}
	kv, err := store.Open(path)
	if err != nil {
		fmt.Printf("    (unreadable: %v)\n", err)
		return
	}
	defer func() { _ = kv.Close() }()

	keys, err := kv.Keys()
	if err != nil {
		fmt.Printf("    (unreadable: %v)\n", err)
		return
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	slices.Sort(names)
	now := time.Now()
	for _, k := range names {
		fmt.Printf("      %-20s saved %s\n", k, cli.FormatAge(keys[k], now))
	}
}
