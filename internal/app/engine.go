// Package app wires the stateful components into one engine.
package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/tripbudget/internal/budget"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/ledger"
	"github.com/theirongolddev/tripbudget/internal/observability"
	"github.com/theirongolddev/tripbudget/internal/rates"
	"github.com/theirongolddev/tripbudget/internal/store"
)

// Options configures an Engine.
type Options struct {
	Store   store.KV
	Source  rates.Source // nil runs offline on the bundled rates
	Base    string
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Engine owns the rate provider, ledger, planner and language preference,
// all sharing one store.
type Engine struct {
	Rates    *rates.Provider
	Ledger   *ledger.Ledger
	Planner  *budget.Planner
	Language *i18n.Preference
	Metrics  *observability.Metrics

	kv  store.KV
	log *zap.Logger
}

// New builds the engine and loads persisted state. It does not touch the
// network; call Start for the initial rate load.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("app: store is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	rp := rates.NewProvider(opts.Source, opts.Base, log.Named("rates"), opts.Metrics)
	led := ledger.New(opts.Store, rp, log.Named("ledger"), opts.Metrics)
	planner := budget.New(opts.Store, led, rp, log.Named("budget"), opts.Metrics)
	lang := i18n.NewPreference(opts.Store, log.Named("i18n"))

	return &Engine{
		Rates:    rp,
		Ledger:   led,
		Planner:  planner,
		Language: lang,
		Metrics:  opts.Metrics,
		kv:       opts.Store,
		log:      log,
	}, nil
}

// Start performs the initial rate load. It never fails; without a live
// source the bundled table stays active.
func (e *Engine) Start(ctx context.Context) {
	_ = e.Rates.Load(ctx)
}

// RefreshEvery refreshes rates on an interval until ctx ends. Failures are
// logged by the provider and the previous table stays active.
func (e *Engine) RefreshEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = e.Rates.Refresh(ctx)
		}
	}
}

// Flush retries any store writes that failed earlier.
func (e *Engine) Flush() error {
	return errors.Join(e.Ledger.Flush(), e.Planner.Flush())
}

// Close flushes pending writes, detaches the planner and closes the store.
func (e *Engine) Close() error {
	flushErr := e.Flush()
	e.Planner.Close()
	if flushErr != nil {
		e.log.Warn("unsaved changes at shutdown", zap.Error(flushErr))
	}
	return errors.Join(flushErr, e.kv.Close())
}
