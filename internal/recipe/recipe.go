package recipe

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/smoothie-scribe/internal/pricing"
)

// Line is one ingredient quantity of a committed recipe.
type Line struct {
	IngredientID string          `json:"ingredientId"`
	Amount       decimal.Decimal `json:"amount"`
}

// Recipe is a named, ordered list of ingredient quantities.
type Recipe struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Lines []Line `json:"ingredients"`
}

// PricingLines converts the recipe lines for the cost roll-up.
func (r Recipe) PricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, pricing.Line{IngredientID: l.IngredientID, Amount: l.Amount})
	}
	return out
}

// Total prices the recipe against costs.
func (r Recipe) Total(costs pricing.CostMap) decimal.Decimal {
	return pricing.Total(r.PricingLines(), costs)
}

func (r Recipe) clone() Recipe {
	r.Lines = append([]Line(nil), r.Lines...)
	return r
}

var (
	// ErrNotFound indicates the recipe id is unknown.
	ErrNotFound = errors.New("recipe not found")
	// ErrDraftNotFound indicates the editor session is unknown or expired.
	ErrDraftNotFound = errors.New("draft session not found")
	// ErrNameRequired is returned when committing a draft with a blank name.
	ErrNameRequired = errors.New("recipe name required")
	// ErrNoValidLines is returned when no draft line has a positive amount.
	ErrNoValidLines = errors.New("recipe has no line with a positive amount")
	// ErrInvalidAmount is returned when adding a line without an ingredient or positive amount.
	ErrInvalidAmount = errors.New("invalid ingredient amount")
	// ErrRejectedInput is returned when a line amount edit is not an integer.
	ErrRejectedInput = errors.New("rejected amount input")
	// ErrLineNotFound is returned for an out-of-range line index.
	ErrLineNotFound = errors.New("draft line not found")
	// ErrUnknownIngredient is returned when adding an ingredient the inventory does not hold.
	ErrUnknownIngredient = errors.New("unknown ingredient")
)

// Notice returns the user-facing message for a draft failure, or "".
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrNameRequired):
		return "Recipe must have a name."
	case errors.Is(err, ErrNoValidLines):
		return "Recipe must have at least one ingredient with a positive amount."
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrUnknownIngredient):
		return "Please select an ingredient and enter a valid positive amount."
	default:
		return ""
	}
}
