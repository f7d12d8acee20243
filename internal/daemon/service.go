// Package daemon serves the live budget state over HTTP and SSE and keeps
// exchange rates fresh in the background.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/theirongolddev/tripbudget/internal/app"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/observability"
	"github.com/theirongolddev/tripbudget/internal/rates"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr            string
	TargetCurrency  string
	RefreshInterval time.Duration
	EventsBuffer    int
}

// Event types.
const (
	EventSnapshot = "snapshot"
	EventExpenses = "expenses"
	EventPlan     = "plan"
	EventTrip     = "trip"
	EventRates    = "rates"
	EventLanguage = "language"
)

// Snapshot is a compact budget state for status and event payloads.
type Snapshot struct {
	At              time.Time          `json:"at"`
	Expenses        int                `json:"expenses"`
	TargetCurrency  string             `json:"target_currency"`
	Total           decimal.Decimal    `json:"total"`
	Status          model.BudgetStatus `json:"status"`
	HasPlan         bool               `json:"has_plan"`
	RequiredMonthly decimal.Decimal    `json:"required_monthly"`
	IsAffordable    bool               `json:"is_affordable"`
	Language        i18n.Language      `json:"language"`
	RatesOrigin     rates.Origin       `json:"rates_origin"`
	RatesUpdatedAt  *time.Time         `json:"rates_updated_at,omitempty"`
	Trip            *model.TripBudget  `json:"trip,omitempty"`
}

// Event is emitted whenever a component publishes a change.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt          time.Time `json:"started_at"`
	LastRefreshAt      time.Time `json:"last_refresh_at"`
	RefreshIntervalSec int       `json:"refresh_interval_sec"`
	RefreshCount       int64     `json:"refresh_count"`
	LastError          string    `json:"last_error,omitempty"`
	Snapshot           Snapshot  `json:"snapshot"`
	EventCount         int       `json:"event_count"`
	SubscriberCount    int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	eng *app.Engine
	log *zap.Logger

	cancels []func()

	// Component changes not yet turned into events, each kind at most once
	// in arrival order. wake signals Run that the list is non-empty.
	pendMu  sync.Mutex
	pending []string
	wake    chan struct{}

	mu            sync.RWMutex
	startedAt     time.Time
	lastRefreshAt time.Time
	refreshCount  int64
	lastError     string
	nextEventID   int64
	events        []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service over eng. It subscribes to every component
// immediately; call Close when the service is not run.
func New(cfg Config, eng *app.Engine, log *zap.Logger) *Service {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Hour
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	cfg.TargetCurrency = model.NormalizeCode(cfg.TargetCurrency)
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		cfg:       cfg,
		eng:       eng,
		log:       log,
		wake:      make(chan struct{}, 1),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	s.cancels = []func(){
		eng.Ledger.Subscribe(func([]model.Expense) { s.notify(EventExpenses) }),
		eng.Planner.SubscribePlan(func(*model.BudgetPlan) { s.notify(EventPlan) }),
		eng.Planner.SubscribeTrip(func(*model.TripBudget) { s.notify(EventTrip) }),
		eng.Rates.Subscribe(func(rates.Table) { s.notify(EventRates) }),
		eng.Language.Subscribe(func(i18n.Language) { s.notify(EventLanguage) }),
	}
	return s
}

// notify runs inside component broadcasts, so it only records the change.
// Repeated changes of one kind before Run drains them merge into one event.
func (s *Service) notify(kind string) {
	s.pendMu.Lock()
	if !slices.Contains(s.pending, kind) {
		s.pending = append(s.pending, kind)
	}
	s.pendMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Service) takePending() []string {
	s.pendMu.Lock()
	defer s.pendMu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// Close detaches the service from the engine.
func (s *Service) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observability.ZapLoggerMiddleware(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/events", s.handleEvents)
	r.Get("/v1/stream", s.handleStream)
	r.Get("/v1/summary", s.handleSummary)
	r.Get("/v1/expenses", s.handleExpenses)
	r.Post("/v1/rates/refresh", s.handleRefresh)
	if s.eng.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.eng.Metrics.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Run serves HTTP, forwards component changes as events and refreshes rates
// until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	defer s.Close()

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.emit(EventSnapshot)
	s.refreshOnce(ctx)

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.refreshOnce(ctx)
		case <-s.wake:
			for _, kind := range s.takePending() {
				s.emit(kind)
			}
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) refreshOnce(ctx context.Context) error {
	err := s.eng.Rates.Refresh(ctx)

	s.mu.Lock()
	s.lastRefreshAt = time.Now()
	s.refreshCount++
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("rate refresh failed", zap.Error(err))
	}
	return err
}

func (s *Service) snapshot() Snapshot {
	target := s.cfg.TargetCurrency
	plan, hasPlan := s.eng.Planner.Plan()
	if target == "" && hasPlan {
		target = plan.TargetCurrency
	}
	if target == "" {
		target = s.eng.Rates.Base()
	}

	snap := Snapshot{
		At:             time.Now(),
		Expenses:       s.eng.Ledger.Len(),
		TargetCurrency: target,
		Total:          s.eng.Ledger.TotalIn(target),
		Status:         s.eng.Planner.CurrentStatus(),
		HasPlan:        hasPlan,
		Language:       s.eng.Language.Current(),
		RatesOrigin:    s.eng.Rates.Table().Origin,
	}
	if hasPlan {
		snap.RequiredMonthly = plan.RequiredMonthlySavings
		snap.IsAffordable = plan.IsAffordable
	}
	if at, ok := s.eng.Rates.LastUpdated(); ok {
		snap.RatesUpdatedAt = &at
	}
	if trip, ok := s.eng.Planner.Trip(); ok {
		snap.Trip = &trip
	}
	return snap
}

func (s *Service) emit(kind string) {
	snap := s.snapshot()

	s.mu.Lock()
	s.nextEventID++
	ev := Event{ID: s.nextEventID, Type: kind, Timestamp: snap.At, Snapshot: snap}
	s.mu.Unlock()

	s.publishEvent(ev)
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) status() Status {
	snap := s.snapshot()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		StartedAt:          s.startedAt,
		LastRefreshAt:      s.lastRefreshAt,
		RefreshIntervalSec: int(s.cfg.RefreshInterval.Seconds()),
		RefreshCount:       s.refreshCount,
		LastError:          s.lastError,
		Snapshot:           snap,
		EventCount:         len(s.events),
		SubscriberCount:    len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

type summaryResponse struct {
	Summary         model.BudgetSummary    `json:"summary"`
	Statistics      model.Statistics       `json:"statistics"`
	Recommendations []model.Recommendation `json:"recommendations"`
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	lang := s.eng.Language.Current()
	if q := r.URL.Query().Get("lang"); q != "" {
		l, err := i18n.Parse(q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		lang = l
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:         s.eng.Planner.Summary(),
		Statistics:      s.eng.Ledger.Statistics(),
		Recommendations: s.eng.Planner.Recommendations(lang),
	})
}

func (s *Service) handleExpenses(w http.ResponseWriter, r *http.Request) {
	target := model.NormalizeCode(r.URL.Query().Get("currency"))
	if target == "" {
		target = s.snapshot().TargetCurrency
	}
	if !model.ValidCode(target) {
		http.Error(w, "invalid currency", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.eng.Ledger.Converted(target))
}

func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	err := s.refreshOnce(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.snapshot())
	case errors.Is(err, model.ErrStaleRates):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	current := Event{Type: EventSnapshot, Timestamp: time.Now(), Snapshot: s.snapshot()}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
