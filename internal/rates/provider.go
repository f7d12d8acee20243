// Package rates holds the active exchange-rate table and converts amounts
// between currencies.
package rates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/observability"
	"github.com/theirongolddev/tripbudget/internal/observe"
)

// Source fetches a live table for a base currency.
type Source interface {
	Fetch(ctx context.Context, base string) (Table, error)
}

// ErrNoSource is returned by Refresh when the provider runs offline.
var ErrNoSource = errors.New("no rate source configured")

var one = decimal.NewFromInt(1)

// Provider converts amounts using the active table. It starts with the
// bundled fallback table and never blocks a conversion on the network.
type Provider struct {
	src      Source
	base     string
	log      *zap.Logger
	metrics  *observability.Metrics
	fallback Table
	now      func() time.Time

	cell *observe.Cell[Table]

	writeMu sync.Mutex // serializes installs
	genMu   sync.RWMutex
	gen     uint64 // bumped on every install
	applied uint64 // fetch id of the installed live table

	sf       singleflight.Group
	fetchMu  sync.Mutex
	fetchSeq uint64
}

// NewProvider returns a provider holding the fallback table expressed in
// base. src may be nil for offline use; base defaults to USD.
func NewProvider(src Source, base string, log *zap.Logger, metrics *observability.Metrics) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	base = model.NormalizeCode(base)
	if base == "" {
		base = FallbackBase
	}
	fb, ok := FallbackTable().Rebase(base)
	if !ok {
		log.Warn("bundled rates do not cover the base currency", zap.String("base", base))
		fb = Table{Base: base, Rates: map[string]decimal.Decimal{}, Origin: OriginFallback}
	}
	return &Provider{
		src:      src,
		base:     base,
		log:      log,
		metrics:  metrics,
		fallback: fb,
		now:      time.Now,
		cell:     observe.NewCell(fb),
	}
}

// Base returns the currency all rates are expressed against.
func (p *Provider) Base() string { return p.base }

// Table returns the active table. Callers must not modify its map.
func (p *Provider) Table() Table { return p.cell.Get() }

// LastUpdated returns when the active table was installed. The bundled table
// present before any load reports false.
func (p *Provider) LastUpdated() (time.Time, bool) {
	t := p.cell.Get()
	return t.UpdatedAt, !t.UpdatedAt.IsZero()
}

// Subscribe registers fn for every table install.
func (p *Provider) Subscribe(fn func(Table)) (cancel func()) {
	return p.cell.Subscribe(fn)
}

// Rate returns the rate for code from the active table, then the bundled
// table. ok is false when neither has it.
func (p *Provider) Rate(code string) (decimal.Decimal, bool) {
	return p.lookup(p.cell.Get(), model.NormalizeCode(code))
}

func (p *Provider) lookup(t Table, code string) (decimal.Decimal, bool) {
	if r, ok := t.Lookup(code); ok {
		return r, true
	}
	fb := p.fallback
	if fb.Base != t.Base {
		// A source answered in another base; express the bundled rates in it.
		var ok bool
		if fb, ok = fb.Rebase(t.Base); !ok {
			return one, false
		}
	}
	if r, ok := fb.Lookup(code); ok {
		return r, true
	}
	return one, false
}

// Convert converts amount from one currency to another, rounding to cents.
// Same-currency and zero amounts come back unchanged. Unknown currencies
// are treated as rate 1.
func (p *Provider) Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	v, _ := p.ConvertChecked(amount, from, to)
	return v
}

// ConvertChecked is Convert that also reports, with an error wrapping
// model.ErrConversionDegraded, when a rate of 1 had to be assumed. The
// returned amount is valid either way.
func (p *Provider) ConvertChecked(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, to = model.NormalizeCode(from), model.NormalizeCode(to)
	if from == to || amount.IsZero() {
		return amount, nil
	}

	t := p.cell.Get()
	var missing []string
	v := amount
	if from != t.Base {
		r, ok := p.lookup(t, from)
		if !ok {
			missing = append(missing, from)
		}
		v = v.Div(r)
	}
	if to != t.Base {
		r, ok := p.lookup(t, to)
		if !ok {
			missing = append(missing, to)
		}
		v = v.Mul(r)
	}
	v = v.Round(2)

	if len(missing) == 0 {
		return v, nil
	}
	for _, code := range missing {
		p.metrics.IncrDegraded(code)
	}
	p.log.Warn("no rate for currency, assuming 1", zap.Strings("currencies", missing), zap.String("base", t.Base))
	return v, fmt.Errorf("converting %s to %s: %w", from, to, model.ErrConversionDegraded)
}

// ExchangeRate returns the value of one unit of from in to.
func (p *Provider) ExchangeRate(from, to string) decimal.Decimal {
	return p.Convert(one, from, to)
}

// Load performs the initial fetch. If it fails the bundled table is
// installed, stamped with the load time. Load itself never fails.
func (p *Provider) Load(ctx context.Context) error {
	err := p.Refresh(ctx)
	if err == nil || !errors.Is(err, model.ErrRateFetchFailed) {
		return nil
	}

	fb := p.fallback
	fb.UpdatedAt = p.now()

	p.writeMu.Lock()
	p.install(fb, 0)
	p.writeMu.Unlock()

	p.metrics.RecordRateRefresh(observability.RefreshFallback, 0)
	p.log.Warn("using bundled exchange rates", zap.Error(err))
	return nil
}

type fetchResult struct {
	table Table
	gen   uint64 // generation when the fetch started
	id    uint64
}

// Refresh fetches a new table and installs it. Concurrent callers share one
// fetch. On failure the active table is kept and the error wraps
// model.ErrRateFetchFailed. A result is discarded, with model.ErrStaleRates,
// when another table was installed while the fetch was in flight or when
// ctx ended before it resolved.
func (p *Provider) Refresh(ctx context.Context) error {
	if p.src == nil {
		p.metrics.RecordRateRefresh(observability.RefreshFailed, 0)
		return fmt.Errorf("refreshing rates: %w: %w", model.ErrRateFetchFailed, ErrNoSource)
	}

	ch := p.sf.DoChan("refresh", func() (any, error) {
		started := p.now()
		res := fetchResult{gen: p.generation(), id: p.nextFetchID()}
		// The fetch outlives any single caller; each caller decides for itself
		// whether to apply the result.
		t, err := p.src.Fetch(context.WithoutCancel(ctx), p.base)
		elapsed := p.now().Sub(started)
		if err != nil {
			p.metrics.RecordRateRefresh(observability.RefreshFailed, elapsed)
			return nil, err
		}
		if t.Base == "" {
			t.Base = p.base
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = p.now()
		}
		t.Origin = OriginLive
		res.table = t
		p.metrics.RecordRateRefresh(observability.RefreshLive, elapsed)
		return res, nil
	})

	var r singleflight.Result
	select {
	case <-ctx.Done():
		p.metrics.RecordRateRefresh(observability.RefreshStale, 0)
		return fmt.Errorf("refreshing rates: %w: %w", model.ErrStaleRates, ctx.Err())
	case r = <-ch:
	}

	if r.Err != nil {
		p.log.Warn("exchange rate refresh failed", zap.Error(r.Err))
		return fmt.Errorf("refreshing rates: %w: %w", model.ErrRateFetchFailed, r.Err)
	}
	if err := ctx.Err(); err != nil {
		p.metrics.RecordRateRefresh(observability.RefreshStale, 0)
		return fmt.Errorf("refreshing rates: %w: %w", model.ErrStaleRates, err)
	}

	res := r.Val.(fetchResult)

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.genMu.RLock()
	gen, applied := p.gen, p.applied
	p.genMu.RUnlock()

	switch {
	case applied == res.id:
		// A caller sharing this fetch already installed it.
		return nil
	case gen != res.gen:
		p.metrics.RecordRateRefresh(observability.RefreshStale, 0)
		p.log.Warn("discarding exchange rates fetched against a replaced table",
			zap.Uint64("fetch_generation", res.gen), zap.Uint64("generation", gen))
		return fmt.Errorf("refreshing rates: %w", model.ErrStaleRates)
	}

	p.install(res.table, res.id)
	p.log.Debug("exchange rates updated", zap.Int("rates", res.table.Len()), zap.String("base", res.table.Base))
	return nil
}

// install must be called with writeMu held.
func (p *Provider) install(t Table, fetchID uint64) {
	p.genMu.Lock()
	p.gen++
	p.applied = fetchID
	p.genMu.Unlock()
	p.cell.Set(t)
}

func (p *Provider) generation() uint64 {
	p.genMu.RLock()
	defer p.genMu.RUnlock()
	return p.gen
}

func (p *Provider) nextFetchID() uint64 {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	p.fetchSeq++
	return p.fetchSeq
}
