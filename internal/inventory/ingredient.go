package inventory

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/smoothie-scribe/internal/pricing"
)

// Unit is the measure an ingredient is purchased and used in.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitMilliliter Unit = "ml"
)

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	return u == UnitGram || u == UnitMilliliter
}

// Field names an editable ingredient attribute.
type Field string

const (
	FieldPurchaseCost Field = "purchaseCost"
	FieldPurchaseUnit Field = "purchaseUnit"
)

var (
	costPattern = regexp.MustCompile(`^\d*\.?\d*$`)
	unitPattern = regexp.MustCompile(`^\d*$`)
)

// Ingredient is a purchase record. Cost and quantity hold the raw text last
// accepted from the user so partial input such as "5." survives edits.
type Ingredient struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PurchaseCost string `json:"purchaseCost"`
	PurchaseUnit string `json:"purchaseUnit"`
	Unit         Unit   `json:"unit"`
}

// CostPerUnit derives the ingredient's cost per unit from its raw fields.
func (i Ingredient) CostPerUnit() decimal.Decimal {
	return pricing.CostPerUnit(i.PurchaseCost, i.PurchaseUnit)
}

// NewIngredient is the add-ingredient form payload.
type NewIngredient struct {
	Name         string `json:"name" validate:"required,max=120"`
	PurchaseCost string `json:"purchaseCost" validate:"required"`
	PurchaseUnit string `json:"purchaseUnit" validate:"required"`
	Unit         Unit   `json:"unit" validate:"omitempty,oneof=g ml"`
}

var (
	// ErrNotFound indicates the ingredient id is unknown.
	ErrNotFound = errors.New("ingredient not found")
	// ErrDuplicateName is returned when a name is already taken (case-insensitive).
	ErrDuplicateName = errors.New("ingredient name already exists")
	// ErrInvalidInput is returned when an add submission has missing or non-positive values.
	ErrInvalidInput = errors.New("invalid ingredient input")
	// ErrRejectedInput is returned when an edit does not match the field's numeric pattern.
	ErrRejectedInput = errors.New("rejected ingredient input")
	// ErrUnknownField is returned when an edit targets a field that is not editable.
	ErrUnknownField = errors.New("unknown ingredient field")
)

// DuplicateNameError carries the conflicting name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("ingredient %q already exists", e.Name)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// Notice returns the user-facing message for an add or edit failure, or "" when
// the error carries no notice.
func Notice(err error) string {
	var dup *DuplicateNameError
	switch {
	case errors.As(err, &dup):
		return fmt.Sprintf("Ingredient %q already exists. Please update the existing entry.", dup.Name)
	case errors.Is(err, ErrInvalidInput):
		return "Please fill out all fields with valid positive numbers."
	default:
		return ""
	}
}

// acceptEdit checks value against field's pattern and returns the text to store.
func acceptEdit(field Field, value string) (string, error) {
	switch field {
	case FieldPurchaseCost:
		if !costPattern.MatchString(value) {
			return "", fmt.Errorf("%w: %s=%q", ErrRejectedInput, field, value)
		}
		if value == "." {
			return "0.", nil
		}
		return value, nil
	case FieldPurchaseUnit:
		if !unitPattern.MatchString(value) {
			return "", fmt.Errorf("%w: %s=%q", ErrRejectedInput, field, value)
		}
		return value, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}
