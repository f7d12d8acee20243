// Package ledger holds the trip's expense records and the aggregates derived
// from them.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/observability"
	"github.com/theirongolddev/tripbudget/internal/observe"
	"github.com/theirongolddev/tripbudget/internal/store"
)

// Converter converts an amount between currencies.
type Converter interface {
	Convert(amount decimal.Decimal, from, to string) decimal.Decimal
}

// Ledger is the ordered set of expenses, persisted under store.KeyExpenses
// after every change.
//
// Mutations are all-or-nothing in memory. When the store write fails the
// change stays applied, the ledger is marked dirty and the error wraps
// model.ErrPersistenceWrite; the next mutation or Flush rewrites everything.
type Ledger struct {
	kv      store.KV
	conv    Converter
	log     *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string

	writeMu sync.Mutex // serializes mutate, persist, publish

	mu    sync.RWMutex
	items []model.Expense
	dirty bool

	cell *observe.Cell[[]model.Expense]
}

// New loads the ledger from kv. A missing or malformed blob yields an empty
// ledger.
func New(kv store.KV, conv Converter, log *zap.Logger, metrics *observability.Metrics) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Ledger{
		kv:      kv,
		conv:    conv,
		log:     log,
		metrics: metrics,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	l.items = l.load()
	l.cell = observe.NewCell(clone(l.items))
	metrics.SetExpenses(len(l.items))
	return l
}

func (l *Ledger) load() []model.Expense {
	raw, err := l.kv.Get(store.KeyExpenses)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		l.log.Warn("loading expenses", zap.Error(err))
		return nil
	}
	var items []model.Expense
	if err := json.Unmarshal(raw, &items); err != nil {
		l.log.Warn("ignoring malformed expenses blob", zap.Error(err), zap.Int("bytes", len(raw)))
		return nil
	}
	return items
}

// Add validates in and appends a new expense.
func (l *Ledger) Add(in model.ExpenseInput) (model.Expense, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Currency = model.NormalizeCode(in.Currency)
	if err := in.Validate(); err != nil {
		return model.Expense{}, err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	e := model.Expense{
		ID:        l.newID(),
		Name:      in.Name,
		Amount:    in.Amount,
		Currency:  in.Currency,
		Category:  in.Category,
		CreatedAt: l.now(),
	}
	next := append(l.snapshot(), e)
	return e, l.commit(next)
}

// Update merges patch into the expense with the given id. The merged record
// must pass validation or nothing changes.
func (l *Ledger) Update(id string, patch model.ExpensePatch) (model.Expense, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	next := l.snapshot()
	i := indexOf(next, id)
	if i < 0 {
		return model.Expense{}, &model.NotFoundError{Resource: "expense", ID: id}
	}
	updated := patch.Apply(next[i])
	if err := updated.Validate(); err != nil {
		return model.Expense{}, err
	}
	next[i] = updated
	return updated, l.commit(next)
}

// Remove deletes the expense with the given id and reports whether it
// existed.
func (l *Ledger) Remove(id string) (bool, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	cur := l.snapshot()
	i := indexOf(cur, id)
	if i < 0 {
		return false, nil
	}
	next := append(cur[:i:i], cur[i+1:]...)
	return true, l.commit(next)
}

// Clear removes every expense.
func (l *Ledger) Clear() error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.commit(nil)
}

// Import replaces the ledger with expenses. Records are taken as given;
// missing IDs and timestamps are filled in.
func (l *Ledger) Import(expenses []model.Expense) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	next := make([]model.Expense, len(expenses))
	for i, e := range expenses {
		if e.ID == "" {
			e.ID = l.newID()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = l.now()
		}
		next[i] = e
	}
	return l.commit(next)
}

// Export returns every expense in insertion order.
func (l *Ledger) Export() []model.Expense { return l.List() }

// Flush rewrites the store if an earlier write failed.
func (l *Ledger) Flush() error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.RLock()
	dirty := l.dirty
	l.mu.RUnlock()
	if !dirty {
		return nil
	}
	return l.persist(l.snapshot())
}

// Dirty reports whether the store is behind memory.
func (l *Ledger) Dirty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dirty
}

// commit must be called with writeMu held.
func (l *Ledger) commit(next []model.Expense) error {
	l.mu.Lock()
	l.items = next
	l.mu.Unlock()

	err := l.persist(next)
	l.metrics.SetExpenses(len(next))
	l.cell.Set(clone(next))
	return err
}

func (l *Ledger) persist(items []model.Expense) error {
	if items == nil {
		items = []model.Expense{}
	}
	blob, err := json.Marshal(items)
	if err == nil {
		err = l.kv.Put(store.KeyExpenses, blob)
	}

	l.mu.Lock()
	l.dirty = err != nil
	l.mu.Unlock()

	if err != nil {
		l.metrics.IncrStoreWriteError(store.KeyExpenses)
		l.log.Warn("saving expenses", zap.Error(err), zap.Int("expenses", len(items)))
		return fmt.Errorf("saving expenses: %w: %w", model.ErrPersistenceWrite, err)
	}
	return nil
}

// Get returns the expense with the given id.
func (l *Ledger) Get(id string) (model.Expense, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := indexOf(l.items, id); i >= 0 {
		return l.items[i], true
	}
	return model.Expense{}, false
}

// List returns every expense in insertion order.
func (l *Ledger) List() []model.Expense {
	return l.snapshot()
}

// Len returns the number of expenses.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// ByCategory returns the expenses in category c, in insertion order.
func (l *Ledger) ByCategory(c model.Category) []model.Expense {
	var out []model.Expense
	for _, e := range l.snapshot() {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

// TotalIn converts every expense to target and sums them, rounded to cents.
// An empty target returns the raw cross-currency sum, which mixes units.
func (l *Ledger) TotalIn(target string) decimal.Decimal {
	items := l.snapshot()
	if target == "" {
		return RawTotal(items)
	}
	total := decimal.Zero
	for _, e := range items {
		total = total.Add(l.conv.Convert(e.Amount, e.Currency, target))
	}
	return total.Round(2)
}

// Converted pairs every expense with its amount in target.
func (l *Ledger) Converted(target string) []model.ConvertedExpense {
	target = model.NormalizeCode(target)
	items := l.snapshot()
	out := make([]model.ConvertedExpense, len(items))
	for i, e := range items {
		out[i] = model.ConvertedExpense{
			Expense:         e,
			ConvertedAmount: l.conv.Convert(e.Amount, e.Currency, target),
			TargetCurrency:  target,
		}
	}
	return out
}

// DistributionByCategory sums raw amounts per category.
func (l *Ledger) DistributionByCategory() map[model.Category]decimal.Decimal {
	return DistributionByCategory(l.snapshot())
}

// DistributionByCurrency sums raw amounts per currency.
func (l *Ledger) DistributionByCurrency() map[string]decimal.Decimal {
	return DistributionByCurrency(l.snapshot())
}

// Statistics returns ledger-wide aggregates.
func (l *Ledger) Statistics() model.Statistics {
	return Statistics(l.snapshot())
}

// Subscribe registers fn to receive the full expense list after every
// change, before the mutating call returns.
func (l *Ledger) Subscribe(fn func([]model.Expense)) (cancel func()) {
	return l.cell.Subscribe(fn)
}

func (l *Ledger) snapshot() []model.Expense {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return clone(l.items)
}

func clone(items []model.Expense) []model.Expense {
	out := make([]model.Expense, len(items))
	copy(out, items)
	return out
}

func indexOf(items []model.Expense, id string) int {
	for i, e := range items {
		if e.ID == id {
			return i
		}
	}
	return -1
}
