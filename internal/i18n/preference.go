package i18n

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/observe"
	"github.com/theirongolddev/tripbudget/internal/store"
)

// Preference is the persisted display-language choice.
type Preference struct {
	kv     store.KV
	log    *zap.Logger
	cell   *observe.Cell[Language]
	writeM sync.Mutex
}

// NewPreference loads the saved language from kv. An absent or unknown value
// yields Default.
func NewPreference(kv store.KV, log *zap.Logger) *Preference {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Preference{kv: kv, log: log, cell: observe.NewCell(Default)}

	raw, err := kv.Get(store.KeyPreferredLanguage)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		log.Warn("loading language preference", zap.Error(err))
	default:
		// Older writers stored the bare code, newer ones a JSON string.
		l := Language(strings.Trim(strings.TrimSpace(string(raw)), `"`))
		if l.Valid() {
			p.cell.Set(l)
		} else {
			log.Warn("ignoring unknown saved language", zap.String("value", string(raw)))
		}
	}
	return p
}

// Current returns the active language.
func (p *Preference) Current() Language { return p.cell.Get() }

// Set switches to l and persists it. A store failure keeps l active and
// returns an error wrapping model.ErrPersistenceWrite.
func (p *Preference) Set(l Language) error {
	if !l.Valid() {
		return &model.ValidationError{Field: "language", Message: fmt.Sprintf("unsupported language %q", l)}
	}
	p.writeM.Lock()
	defer p.writeM.Unlock()

	p.cell.Set(l)
	if err := p.kv.Put(store.KeyPreferredLanguage, []byte(l)); err != nil {
		p.log.Warn("saving language preference", zap.Error(err))
		return fmt.Errorf("saving language: %w: %w", model.ErrPersistenceWrite, err)
	}
	return nil
}

// Toggle flips between Arabic and English and returns the new language.
func (p *Preference) Toggle() (Language, error) {
	next := p.Current().Other()
	return next, p.Set(next)
}

// Subscribe registers fn for language changes.
func (p *Preference) Subscribe(fn func(Language)) (cancel func()) {
	return p.cell.Subscribe(fn)
}
