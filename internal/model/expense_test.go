package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidate(t *testing.T) {
	ok := decimal.NewFromInt(100)
	tests := []struct {
		name     string
		expName  string
		amount   decimal.Decimal
		currency string
		category Category
		field    string
	}{
		{"valid", "Hotel", ok, "USD", CategoryAccommodation, ""},
		{"trimmed name still long enough", "  ab  ", ok, "USD", CategoryFood, ""},
		{"empty name", "   ", ok, "USD", CategoryFood, "name"},
		{"short name", "a", ok, "USD", CategoryFood, "name"},
		{"long name", strings.Repeat("x", 101), ok, "USD", CategoryFood, "name"},
		{"arabic name counts runes", "فندق", ok, "SAR", CategoryAccommodation, ""},
		{"zero amount", "Taxi", decimal.Zero, "USD", CategoryTransportation, "amount"},
		{"negative amount", "Taxi", decimal.NewFromInt(-5), "USD", CategoryTransportation, "amount"},
		{"max amount", "Taxi", MaxAmount, "USD", CategoryTransportation, ""},
		{"over max amount", "Taxi", MaxAmount.Add(decimal.NewFromFloat(0.01)), "USD", CategoryTransportation, "amount"},
		{"lowercase currency", "Taxi", ok, "usd", CategoryTransportation, "currency"},
		{"bad currency", "Taxi", ok, "US", CategoryTransportation, "currency"},
		{"unknown category", "Taxi", ok, "USD", Category("spa"), "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.expName, tt.amount, tt.currency, tt.category)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestExpenseInputValidateNormalizesCurrency(t *testing.T) {
	in := ExpenseInput{Name: "Dinner", Amount: decimal.NewFromInt(40), Currency: " eur ", Category: CategoryFood}
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestPatchApply(t *testing.T) {
	orig := Expense{
		ID:       "e1",
		Name:     "Flight",
		Amount:   decimal.NewFromInt(500),
		Currency: "USD",
		Category: CategoryFlights,
	}

	name := "  Return flight "
	cur := "sar"
	got := ExpensePatch{Name: &name, Currency: &cur}.Apply(orig)

	if got.Name != "Return flight" {
		t.Errorf("Name = %q, want %q", got.Name, "Return flight")
	}
	if got.Currency != "SAR" {
		t.Errorf("Currency = %q, want SAR", got.Currency)
	}
	if !got.Amount.Equal(orig.Amount) || got.Category != orig.Category || got.ID != orig.ID {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if orig.Name != "Flight" {
		t.Errorf("Apply mutated the original: %+v", orig)
	}
}

func TestErrorKinds(t *testing.T) {
	var err error = &NotFoundError{Resource: "expense", ID: "x"}
	if !IsNotFound(err) || IsValidation(err) {
		t.Errorf("NotFoundError classified wrong")
	}
	if err.Error() != "expense not found: x" {
		t.Errorf("Error() = %q", err.Error())
	}

	wrapped := errors.Join(errors.New("saving expenses"), ErrPersistenceWrite)
	if !IsWarning(wrapped) {
		t.Errorf("IsWarning(%v) = false", wrapped)
	}
	if IsWarning(&ValidationError{Field: "name"}) {
		t.Errorf("validation error reported as warning")
	}
}

func TestLookupCategory(t *testing.T) {
	info, ok := LookupCategory(CategoryShopping)
	if !ok || info.NameEn != "Shopping" {
		t.Fatalf("LookupCategory(shopping) = %+v, %v", info, ok)
	}
	if len(Categories) != 7 {
		t.Errorf("len(Categories) = %d, want 7", len(Categories))
	}
}
