// Package cmd implements the tripbudget CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/tripbudget/internal/app"
	"github.com/theirongolddev/tripbudget/internal/cli"
	"github.com/theirongolddev/tripbudget/internal/config"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/observability"
	"github.com/theirongolddev/tripbudget/internal/rates"
	"github.com/theirongolddev/tripbudget/internal/resilience"
	"github.com/theirongolddev/tripbudget/internal/store"
)

var (
	flagDB      string
	flagTarget  string
	flagOffline bool
	flagQuiet   bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:          "tripbudget",
	Short:        "Travel budget planner with live currency conversion",
	Long:         "Plan a trip budget: record expected expenses in any currency, convert them with live exchange rates, and see whether your savings plan covers the trip.",
	RunE:         runSummary,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "State database path (default from config)")
	rootCmd.PersistentFlags().StringVarP(&flagTarget, "target", "t", "", "Target currency for totals (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Skip fetching live exchange rates")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging to stderr")
}

// session is everything a command needs: the loaded config and a running
// engine.
type session struct {
	cfg    config.Config
	eng    *app.Engine
	log    *zap.Logger
	target string
}

func (s *session) lang() i18n.Language { return s.eng.Language.Current() }

func (s *session) close() {
	if err := s.eng.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "  closing state: %v\n", err)
	}
	_ = s.log.Sync()
}

func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  %v (using defaults)\n", err)
	}
	return cfg
}

func newLogger(cfg config.Config) *zap.Logger {
	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	return observability.NewLogger(level)
}

// openSession opens the state store and wires the engine. With withRates,
// and unless --offline, live rates are fetched before returning.
func openSession(withRates bool) (*session, error) {
	cfg := loadConfig()
	log := newLogger(cfg)

	path := flagDB
	if path == "" {
		path = cfg.StorePath()
	}
	kv, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening state: %w", err)
	}

	var src rates.Source
	if !flagOffline {
		retry := resilience.DefaultConfig()
		retry.MaxRetries = cfg.Rates.MaxRetries
		src = rates.NewHTTPSource(cfg.Rates.URL, time.Duration(cfg.Rates.TimeoutSeconds)*time.Second, retry)
	}

	eng, err := app.New(app.Options{
		Store:   kv,
		Source:  src,
		Base:    cfg.Rates.BaseCurrency,
		Logger:  log,
		Metrics: observability.NewMetrics(),
	})
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	if withRates && !flagOffline {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Fetching exchange rates...\n")
		}
		ctx, cancel := commandContext()
		eng.Start(ctx)
		cancel()
	}

	target := model.NormalizeCode(flagTarget)
	if target == "" {
		target = model.NormalizeCode(cfg.General.TargetCurrency)
	}
	return &session{cfg: cfg, eng: eng, log: log, target: target}, nil
}

// report prints non-fatal errors as warnings and passes the rest through.
func report(err error) error {
	if err == nil {
		return nil
	}
	if model.IsWarning(err) {
		fmt.Fprint(os.Stderr, cli.RenderWarning(warningText(err)))
		return nil
	}
	return err
}

func warningText(err error) string {
	switch {
	case errors.Is(err, model.ErrPersistenceWrite):
		return "change applied but not saved: " + err.Error()
	case errors.Is(err, model.ErrConversionDegraded):
		return "rate unavailable, converted 1:1"
	default:
		return err.Error()
	}
}

// commandContext bounds a network operation and cancels it on Ctrl-C.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	return ctx, func() {
		cancel()
		stop()
	}
}
