// Package tui provides the interactive Bubble Tea dashboard for tripbudget.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripbudget/internal/app"
	"github.com/theirongolddev/tripbudget/internal/budget"
	"github.com/theirongolddev/tripbudget/internal/cli"
	"github.com/theirongolddev/tripbudget/internal/config"
	"github.com/theirongolddev/tripbudget/internal/currency"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/rates"
	"github.com/theirongolddev/tripbudget/internal/tui/components"
	"github.com/theirongolddev/tripbudget/internal/tui/theme"
)

// ChangedMsg is sent when an engine component publishes a change.
type ChangedMsg struct{ Kind string }

// RefreshDoneMsg is sent when a rate refresh started from the dashboard ends.
type RefreshDoneMsg struct{ Err error }

type tickMsg time.Time

const (
	tabOverview = iota
	tabExpenses
	tabPlan
	tabRates
)

var tabNames = []string{"Overview", "Expenses", "Plan", "Rates"}

const (
	minTerminalWidth = 60
	maxContentWidth  = 140
)

// App is the root Bubble Tea model.
type App struct {
	eng    *app.Engine
	target string
	lang   i18n.Language

	width     int
	height    int
	activeTab int
	showHelp  bool

	// Rate refresh
	spinner         spinner.Model
	refreshing      bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	lastErr         error

	// Engine change subscription
	changes chan tea.Msg
	cancels []func()

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	needSetup bool

	now func() time.Time
}

// NewApp creates the dashboard over eng. Call Close after the program
// exits to detach from the engine.
func NewApp(eng *app.Engine, cfg config.Config, target string) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	if target == "" {
		target = cfg.General.TargetCurrency
	}

	a := App{
		eng:             eng,
		target:          model.NormalizeCode(target),
		lang:            eng.Language.Current(),
		spinner:         sp,
		refreshInterval: time.Duration(cfg.Rates.RefreshMinutes) * time.Minute,
		lastRefresh:     time.Now(),
		changes:         make(chan tea.Msg, 32),
		needSetup:       !config.Exists(),
		now:             time.Now,
	}
	if a.needSetup {
		a.setupVals = SetupValuesFrom(cfg)
		a.setupForm = NewSetupForm(&a.setupVals)
	}

	push := func(kind string) {
		select {
		case a.changes <- ChangedMsg{Kind: kind}:
		default:
		}
	}
	a.cancels = []func(){
		eng.Ledger.Subscribe(func([]model.Expense) { push("expenses") }),
		eng.Planner.SubscribePlan(func(*model.BudgetPlan) { push("plan") }),
		eng.Planner.SubscribeTrip(func(*model.TripBudget) { push("trip") }),
		eng.Rates.Subscribe(func(rates.Table) { push("rates") }),
		eng.Language.Subscribe(func(i18n.Language) { push("language") }),
	}
	return a
}

// Close detaches the dashboard from the engine.
func (a App) Close() {
	for _, cancel := range a.cancels {
		cancel()
	}
}

func waitForChange(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func refreshCmd(rp *rates.Provider) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return RefreshDoneMsg{Err: rp.Refresh(ctx)}
	}
}

func loadCmd(eng *app.Engine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		eng.Start(ctx)
		return RefreshDoneMsg{}
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForChange(a.changes), tickCmd(), loadCmd(a.eng)}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case ChangedMsg:
		a.lang = a.eng.Language.Current()
		return a, waitForChange(a.changes)

	case RefreshDoneMsg:
		a.refreshing = false
		a.lastRefresh = a.now()
		a.lastErr = msg.Err
		return a, nil

	case spinner.TickMsg:
		if a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.refreshInterval > 0 && !a.refreshing && a.now().Sub(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshCmd(a.eng.Rates), a.spinner.Tick)
		}
		return a, tea.Batch(cmds...)
	}

	if a.needSetup && a.setupForm != nil {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.updateSetupForm(msg)
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		return a.handleKey(k)
	}
	return a, nil
}

func (a App) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := k.String()

	if a.showHelp {
		if key == "q" || key == "ctrl+c" {
			return a, tea.Quit
		}
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "?":
		a.showHelp = true
	case "tab", "right":
		a.activeTab = (a.activeTab + 1) % len(tabNames)
	case "shift+tab", "left":
		a.activeTab = (a.activeTab + len(tabNames) - 1) % len(tabNames)
	case "1", "2", "3", "4":
		a.activeTab = int(key[0] - '1')
	case "l":
		if l, err := a.eng.Language.Toggle(); err != nil {
			a.lastErr = err
		} else {
			a.lang = l
		}
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, tea.Batch(refreshCmd(a.eng.Rates), a.spinner.Tick)
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.lastErr = a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a *App) saveSetupConfig() error {
	cfg, _ := config.Load()
	a.setupVals.Apply(&cfg)
	theme.SetActive(cfg.Appearance.Theme)
	a.target = cfg.General.TargetCurrency

	var errs []error
	if l, err := i18n.Parse(cfg.General.Language); err == nil {
		if err := a.eng.Language.Set(l); err != nil {
			errs = append(errs, err)
		}
		a.lang = l
	}
	if err := config.Save(cfg); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  tripbudget needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}

	w := a.contentWidth()
	var body string
	switch a.activeTab {
	case tabExpenses:
		body = a.viewExpenses(w)
	case tabPlan:
		body = a.viewPlan(w)
	case tabRates:
		body = a.viewRates(w)
	default:
		body = a.viewOverview(w)
	}

	t := theme.Active
	title := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true).
		Render("◈ " + i18n.T(a.lang, i18n.KeyAppTitle))

	var b strings.Builder
	b.WriteString(title + "  " + components.RenderTabBar(tabNames, a.activeTab))
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(components.RenderStatusBar(w, " [1-4]tabs  [l]ang  [r]efresh  [?]help  [q]uit", a.statusInfo()))
	return b.String()
}

func (a App) statusInfo() string {
	if a.refreshing {
		return a.spinner.View() + " refreshing rates "
	}
	info := ""
	if a.lastErr != nil {
		info = "! " + cli.Truncate(a.lastErr.Error(), 40) + "  "
	}
	tbl := a.eng.Rates.Table()
	if at, ok := a.eng.Rates.LastUpdated(); ok {
		info += fmt.Sprintf("rates %s %s ", tbl.Origin, cli.FormatAge(at, a.now()))
	} else {
		info += fmt.Sprintf("rates %s ", tbl.Origin)
	}
	return info
}

func (a App) money(d decimal.Decimal) string {
	return currency.FormatAmount(d, a.target, a.lang)
}

func (a App) viewOverview(w int) string {
	t := theme.Active
	led, planner := a.eng.Ledger, a.eng.Planner

	status := planner.CurrentStatus()
	daysNote := ""
	if trip, ok := planner.Trip(); ok {
		daysNote = trip.Destination + " · " + i18n.T(a.lang, i18n.KeyDaysLeft, planner.DaysUntilTravel(a.now()))
	}

	row := components.MetricRow([]components.Metric{
		{Label: i18n.T(a.lang, i18n.KeyExpensesTotal), Value: a.money(led.TotalIn(a.target)), Note: daysNote},
		{Label: i18n.T(a.lang, i18n.KeyExpenses), Value: fmt.Sprint(led.Len())},
		{Label: i18n.T(a.lang, i18n.KeyStatus), Value: i18n.StatusName(a.lang, status), Color: t.ForStatus(status)},
	}, w)

	var b strings.Builder
	b.WriteString(row)
	b.WriteString("\n")

	if plan, ok := planner.Plan(); ok {
		pct := planner.SavingsProgress() / 100
		if plan.SavingsGoal.IsZero() {
			pct = 1
		}
		inner := components.CardInnerWidth(w)
		b.WriteString(components.ContentCard(i18n.T(a.lang, i18n.KeyProgress),
			components.SavingsBar(pct, inner), w))
		b.WriteString("\n")
	}

	var recs []string
	for _, r := range planner.Recommendations(a.lang) {
		recs = append(recs, "• "+r.Text)
	}
	b.WriteString(components.ContentCard(i18n.T(a.lang, i18n.KeyAdvice), strings.Join(recs, "\n"), w))
	return b.String()
}

func (a App) viewExpenses(w int) string {
	items := a.eng.Ledger.Converted(a.target)
	if len(items) == 0 {
		return components.ContentCard(i18n.T(a.lang, i18n.KeyExpenses), i18n.T(a.lang, i18n.KeyExpensesEmpty), w)
	}

	tbl := cli.Table{
		Headers: []string{
			i18n.T(a.lang, i18n.KeyName),
			i18n.T(a.lang, i18n.KeyCategory),
			i18n.T(a.lang, i18n.KeyAmount),
			a.target,
		},
	}
	for _, e := range items {
		tbl.Rows = append(tbl.Rows, []string{
			cli.Truncate(e.Name, 28),
			i18n.CategoryName(a.lang, e.Category),
			currency.FormatAmount(e.Amount, e.Currency, a.lang),
			a.money(e.ConvertedAmount),
		})
	}

	total := a.eng.Ledger.TotalIn(a.target)
	var bars strings.Builder
	inner := components.CardInnerWidth(w)
	for _, info := range model.Categories {
		sum := decimal.Zero
		for _, e := range items {
			if e.Category == info.Key {
				sum = sum.Add(e.ConvertedAmount)
			}
		}
		if sum.IsZero() {
			continue
		}
		share := 0.0
		if total.IsPositive() {
			share = sum.Div(total).InexactFloat64()
		}
		bars.WriteString(components.ShareBar(info.Icon+" "+i18n.CategoryName(a.lang, info.Key),
			lipgloss.Color(info.Color), share, 20, max(inner-40, 10), a.money(sum)))
		bars.WriteString("\n")
	}

	return cli.RenderTable(tbl) + "\n" +
		components.ContentCard(i18n.T(a.lang, i18n.KeyCategory), strings.TrimRight(bars.String(), "\n"), w)
}

func (a App) viewPlan(w int) string {
	plan, ok := a.eng.Planner.Plan()
	if !ok {
		return components.ContentCard(i18n.T(a.lang, i18n.KeyStatus), i18n.T(a.lang, i18n.AdviceNoPlan), w)
	}
	code := plan.TargetCurrency
	money := func(d decimal.Decimal) string { return currency.FormatAmount(d, code, a.lang) }

	verdict := i18n.T(a.lang, i18n.KeyPlanNeedSavings)
	if plan.IsAffordable {
		verdict = i18n.T(a.lang, i18n.KeyPlanAffordable)
	}
	balanceKey := i18n.KeySurplus
	if plan.Surplus.IsNegative() {
		balanceKey = i18n.KeyDeficit
	}

	rows := [][2]string{
		{i18n.T(a.lang, i18n.KeyExpensesTotal), money(plan.TotalExpenses)},
		{i18n.T(a.lang, i18n.KeyCurrentSavings), money(plan.CurrentSavings)},
		{i18n.T(a.lang, i18n.KeyMonthlyIncome), money(plan.MonthlyIncome)},
		{i18n.T(a.lang, i18n.KeyMonthsUntil), fmt.Sprint(plan.MonthsUntilTravel)},
		{i18n.T(a.lang, i18n.KeySavingsGoal), money(plan.SavingsGoal)},
		{i18n.T(a.lang, i18n.KeyRequiredMonthly), money(plan.RequiredMonthlySavings)},
		{i18n.T(a.lang, balanceKey), money(plan.Surplus.Abs())},
		{i18n.T(a.lang, i18n.KeyStatus), i18n.StatusName(a.lang, budget.Status(plan))},
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(verdict))
	b.WriteString("\n\n")
	for _, r := range rows {
		b.WriteString(strings.TrimPrefix(cli.RenderField(r[0], r[1]), "  "))
	}
	if trip, ok := a.eng.Planner.Trip(); ok {
		b.WriteString("\n")
		b.WriteString(strings.TrimPrefix(cli.RenderField(i18n.T(a.lang, i18n.KeyDestination), trip.Destination), "  "))
		b.WriteString(strings.TrimPrefix(cli.RenderField(i18n.T(a.lang, i18n.KeyDeparture), cli.FormatDate(trip.DepartureDate)), "  "))
	}
	return components.ContentCard("", strings.TrimRight(b.String(), "\n"), w)
}

func (a App) viewRates(w int) string {
	rp := a.eng.Rates
	tbl := cli.Table{Headers: []string{i18n.T(a.lang, i18n.KeyCurrency), "1 " + a.target, a.target}}
	for _, c := range currency.Popular() {
		if c.Code == a.target {
			continue
		}
		tbl.Rows = append(tbl.Rows, []string{
			c.Code + "  " + c.LocalName(a.lang),
			cli.FormatRate(rp.ExchangeRate(a.target, c.Code)),
			cli.FormatRate(rp.ExchangeRate(c.Code, a.target)),
		})
	}

	header := i18n.T(a.lang, i18n.KeyRatesUpdated)
	if rp.Table().Origin == rates.OriginFallback {
		header = i18n.T(a.lang, i18n.KeyRatesOffline)
	}
	return components.ContentCard(header, strings.TrimRight(cli.RenderTable(tbl), "\n"), w)
}

func (a App) viewHelp() string {
	t := theme.Active
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	keys := [][2]string{
		{"1-4 / tab", "switch tabs"},
		{"l", "toggle Arabic / English"},
		{"r", "refresh exchange rates"},
		{"?", "this help"},
		{"q", "quit"},
	}
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(keyStyle.Render(fmt.Sprintf("%-10s", k[0])) + " " + descStyle.Render(k[1]) + "\n")
	}
	card := components.ContentCard("Keys", strings.TrimRight(b.String(), "\n"), 44)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}
