package recipe

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/smoothie-scribe/internal/pricing"
)

var amountPattern = regexp.MustCompile(`^\d*$`)

// DraftLine holds the raw amount text being edited.
type DraftLine struct {
	IngredientID string `json:"ingredientId"`
	Amount       string `json:"amount"`
}

// Draft is an isolated working copy of a recipe. Mutators leave the draft
// unchanged when they return an error.
type Draft struct {
	RecipeID string      `json:"recipeId"`
	Name     string      `json:"name"`
	Lines    []DraftLine `json:"ingredients"`
}

// NewDraft starts an empty draft for a recipe that does not exist yet.
func NewDraft(recipeID string) Draft {
	return Draft{RecipeID: recipeID, Lines: []DraftLine{}}
}

// DraftOf copies a committed recipe, rendering amounts as text.
func DraftOf(r Recipe) Draft {
	d := Draft{RecipeID: r.ID, Name: r.Name, Lines: make([]DraftLine, 0, len(r.Lines))}
	for _, l := range r.Lines {
		d.Lines = append(d.Lines, DraftLine{IngredientID: l.IngredientID, Amount: l.Amount.String()})
	}
	return d
}

// Clone returns a deep copy.
func (d Draft) Clone() Draft {
	d.Lines = append([]DraftLine(nil), d.Lines...)
	return d
}

// Rename replaces the draft name as typed.
func (d *Draft) Rename(name string) {
	d.Name = name
}

// AddIngredient merges amountText into the line for ingredientID, or appends a
// new line when the ingredient is not in the draft yet.
func (d *Draft) AddIngredient(ingredientID, amountText string) error {
	ingredientID = strings.TrimSpace(ingredientID)
	add, ok := pricing.ParseAmount(amountText)
	if ingredientID == "" || !ok || !add.IsPositive() {
		return ErrInvalidAmount
	}
	for i, l := range d.Lines {
		if l.IngredientID == ingredientID {
			d.Lines[i].Amount = lenientAmount(l.Amount).Add(add).String()
			return nil
		}
	}
	d.Lines = append(d.Lines, DraftLine{IngredientID: ingredientID, Amount: add.String()})
	return nil
}

// SetAmount replaces a line's amount text. Only digits are accepted; empty text clears it.
func (d *Draft) SetAmount(index int, text string) error {
	if index < 0 || index >= len(d.Lines) {
		return fmt.Errorf("%w: %d", ErrLineNotFound, index)
	}
	if !amountPattern.MatchString(text) {
		return fmt.Errorf("%w: %q", ErrRejectedInput, text)
	}
	d.Lines[index].Amount = text
	return nil
}

// RemoveLine deletes the line at index.
func (d *Draft) RemoveLine(index int) error {
	if index < 0 || index >= len(d.Lines) {
		return fmt.Errorf("%w: %d", ErrLineNotFound, index)
	}
	d.Lines = append(d.Lines[:index:index], d.Lines[index+1:]...)
	return nil
}

// Finalize converts the draft into a recipe. Unparseable amounts count as zero
// and lines without a positive amount are dropped.
func (d Draft) Finalize() (Recipe, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Recipe{}, ErrNameRequired
	}
	lines := make([]Line, 0, len(d.Lines))
	for _, l := range d.Lines {
		amount := lenientAmount(l.Amount)
		if !amount.IsPositive() {
			continue
		}
		lines = append(lines, Line{IngredientID: l.IngredientID, Amount: amount})
	}
	if len(lines) == 0 {
		return Recipe{}, ErrNoValidLines
	}
	return Recipe{ID: d.RecipeID, Name: name, Lines: lines}, nil
}

// Total prices the draft as currently typed.
func (d Draft) Total(costs pricing.CostMap) decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(pricing.LineCost(costs.Lookup(l.IngredientID), lenientAmount(l.Amount)))
	}
	return total
}

func lenientAmount(text string) decimal.Decimal {
	v, ok := pricing.ParseAmount(text)
	if !ok {
		return decimal.Zero
	}
	return v
}
