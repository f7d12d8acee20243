package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripbudget/internal/config"
	"github.com/theirongolddev/tripbudget/internal/currency"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
	"github.com/theirongolddev/tripbudget/internal/tui/theme"
)

// SetupValues holds the answers of the setup form.
type SetupValues struct {
	Language       string
	TargetCurrency string
	Theme          string
	RatesURL       string
}

// SetupValuesFrom pre-fills the form from cfg.
func SetupValuesFrom(cfg config.Config) SetupValues {
	lang := cfg.General.Language
	if lang == "" {
		lang = string(i18n.Default)
	}
	return SetupValues{
		Language:       lang,
		TargetCurrency: cfg.General.TargetCurrency,
		Theme:          cfg.Appearance.Theme,
		RatesURL:       cfg.Rates.URL,
	}
}

// Apply writes the answers into cfg.
func (v SetupValues) Apply(cfg *config.Config) {
	cfg.General.Language = v.Language
	cfg.General.TargetCurrency = model.NormalizeCode(v.TargetCurrency)
	cfg.Appearance.Theme = v.Theme
	if url := strings.TrimSpace(v.RatesURL); url != "" {
		cfg.Rates.URL = url
	}
}

func currencyOptions(l i18n.Language) []huh.Option[string] {
	all := currency.All()
	opts := make([]huh.Option[string], len(all))
	for i, c := range all {
		opts[i] = huh.NewOption(fmt.Sprintf("%s  %s", c.Code, c.LocalName(l)), c.Code)
	}
	return opts
}

// NewSetupForm builds the first-run form. Answers land in v.
func NewSetupForm(v *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], len(theme.All))
	for i, t := range theme.All {
		themeOpts[i] = huh.NewOption(t.Name, t.Name)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language / اللغة").
				Options(
					huh.NewOption("العربية", string(i18n.Arabic)),
					huh.NewOption("English", string(i18n.English)),
				).
				Value(&v.Language),
			huh.NewSelect[string]().
				Title("Target currency").
				Description("Totals and the budget plan are shown in this currency.").
				Options(currencyOptions(i18n.English)...).
				Height(8).
				Value(&v.TargetCurrency),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.Theme),
			huh.NewInput().
				Title("Exchange rate API").
				Description("Rates are fetched from <url>/<base>.").
				Value(&v.RatesURL),
		),
	)
}

// ExpenseValues holds the answers of the expense form. Amount stays a
// string until submit so the form can validate it.
type ExpenseValues struct {
	Name     string
	Amount   string
	Currency string
	Category string
}

// Input converts the answers into a ledger input.
func (v ExpenseValues) Input() (model.ExpenseInput, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(v.Amount))
	if err != nil {
		return model.ExpenseInput{}, &model.ValidationError{Field: "amount", Message: "not a number"}
	}
	in := model.ExpenseInput{
		Name:     v.Name,
		Amount:   amount,
		Currency: v.Currency,
		Category: model.Category(v.Category),
	}
	return in, in.Validate()
}

// NewExpenseForm builds the interactive expense form in language l.
func NewExpenseForm(v *ExpenseValues, l i18n.Language) *huh.Form {
	if v.Currency == "" {
		v.Currency = "SAR"
	}
	if v.Category == "" {
		v.Category = string(model.CategoryOther)
	}

	catOpts := make([]huh.Option[string], len(model.Categories))
	for i, c := range model.Categories {
		catOpts[i] = huh.NewOption(c.Icon+" "+i18n.CategoryName(l, c.Key), string(c.Key))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(i18n.T(l, i18n.KeyName)).
				Value(&v.Name).
				Validate(func(s string) error {
					return model.Validate(s, decimal.NewFromInt(1), "USD", model.CategoryOther)
				}),
			huh.NewInput().
				Title(i18n.T(l, i18n.KeyAmount)).
				Value(&v.Amount).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil {
						return errors.New("not a number")
					}
					return model.Validate("ok", d, "USD", model.CategoryOther)
				}),
			huh.NewSelect[string]().
				Title(i18n.T(l, i18n.KeyCurrency)).
				Options(currencyOptions(l)...).
				Height(8).
				Value(&v.Currency),
			huh.NewSelect[string]().
				Title(i18n.T(l, i18n.KeyCategory)).
				Options(catOpts...).
				Value(&v.Category),
		),
	)
}
