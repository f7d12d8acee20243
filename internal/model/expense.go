package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Category is one of the fixed expense categories.
type Category string

const (
	CategoryFlights        Category = "flights"
	CategoryAccommodation  Category = "accommodation"
	CategoryFood           Category = "food"
	CategoryTransportation Category = "transportation"
	CategoryEntertainment  Category = "entertainment"
	CategoryShopping       Category = "shopping"
	CategoryOther          Category = "other"
)

// CategoryInfo holds display metadata for a category.
type CategoryInfo struct {
	Key    Category
	NameEn string
	NameAr string
	Icon   string
	Color  string
}

// Categories lists every category in display order.
var Categories = []CategoryInfo{
	{Key: CategoryFlights, NameEn: "Flights", NameAr: "طيران", Icon: "✈️", Color: "#3B82F6"},
	{Key: CategoryAccommodation, NameEn: "Accommodation", NameAr: "إقامة", Icon: "🏨", Color: "#8B5CF6"},
	{Key: CategoryFood, NameEn: "Food & Dining", NameAr: "طعام وشراب", Icon: "🍽️", Color: "#EF4444"},
	{Key: CategoryTransportation, NameEn: "Transportation", NameAr: "مواصلات", Icon: "🚗", Color: "#10B981"},
	{Key: CategoryEntertainment, NameEn: "Entertainment", NameAr: "ترفيه", Icon: "🎭", Color: "#F59E0B"},
	{Key: CategoryShopping, NameEn: "Shopping", NameAr: "تسوق", Icon: "🛍️", Color: "#EC4899"},
	{Key: CategoryOther, NameEn: "Other", NameAr: "أخرى", Icon: "📋", Color: "#6B7280"},
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	_, ok := LookupCategory(c)
	return ok
}

// LookupCategory returns display metadata for c.
func LookupCategory(c Category) (CategoryInfo, bool) {
	for _, info := range Categories {
		if info.Key == c {
			return info, true
		}
	}
	return CategoryInfo{}, false
}

// Expense is a single expected trip cost.
type Expense struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Category  Category        `json:"category"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ExpenseInput is everything needed to record a new expense.
type ExpenseInput struct {
	Name     string
	Amount   decimal.Decimal
	Currency string
	Category Category
}

// ExpensePatch carries the fields to change on an existing expense.
// Nil fields are left untouched.
type ExpensePatch struct {
	Name     *string
	Amount   *decimal.Decimal
	Currency *string
	Category *Category
}

// Apply returns a copy of e with the patch merged in.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Name != nil {
		e.Name = strings.TrimSpace(*p.Name)
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Currency != nil {
		e.Currency = NormalizeCode(*p.Currency)
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	return e
}

// Expense field limits.
const (
	MinNameLength = 2
	MaxNameLength = 100
)

// MaxAmount is the largest amount a single expense may carry.
var MaxAmount = decimal.NewFromInt(999_999)

var codePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// NormalizeCode upper-cases and trims a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code looks like a 3-letter currency code.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Validate checks the expense field constraints.
func Validate(name string, amount decimal.Decimal, currency string, category Category) error {
	name = strings.TrimSpace(name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return &ValidationError{Field: "name", Message: "must not be empty"}
	case n < MinNameLength:
		return &ValidationError{Field: "name", Message: "must be at least 2 characters"}
	case n > MaxNameLength:
		return &ValidationError{Field: "name", Message: "must be at most 100 characters"}
	}
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if amount.GreaterThan(MaxAmount) {
		return &ValidationError{Field: "amount", Message: "must not exceed 999999"}
	}
	if !ValidCode(currency) {
		return &ValidationError{Field: "currency", Message: "must be a 3-letter currency code"}
	}
	if !category.Valid() {
		return &ValidationError{Field: "category", Message: "unknown category " + string(category)}
	}
	return nil
}

// Validate checks the input against the expense constraints.
func (in ExpenseInput) Validate() error {
	return Validate(in.Name, in.Amount, NormalizeCode(in.Currency), in.Category)
}

// Validate checks a stored expense against the expense constraints.
func (e Expense) Validate() error {
	return Validate(e.Name, e.Amount, e.Currency, e.Category)
}

// ConvertedExpense pairs an expense with its amount in a target currency.
type ConvertedExpense struct {
	Expense
	ConvertedAmount decimal.Decimal `json:"convertedAmount"`
	TargetCurrency  string          `json:"targetCurrency"`
}

// Statistics holds ledger-wide aggregates.
type Statistics struct {
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	AverageExpense   decimal.Decimal `json:"averageExpense"`
	Count            int             `json:"expenseCount"`
	TopCategory      Category        `json:"topCategory"`
	MostUsedCurrency string          `json:"mostUsedCurrency"`
}
