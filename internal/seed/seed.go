// Package seed loads the starter ingredient catalog and recipes.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/noah-isme/smoothie-scribe/internal/inventory"
	"github.com/noah-isme/smoothie-scribe/internal/recipe"
)

//go:embed seed.json
var defaultCatalog []byte

// Catalog is the on-disk seed format.
type Catalog struct {
	Ingredients []inventory.Ingredient `json:"ingredients"`
	Recipes     []recipe.Recipe        `json:"recipes"`
}

// Default returns the embedded starter catalog.
func Default() (Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, or the embedded one when path is empty.
func Load(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog, rejecting unknown fields.
func Parse(data []byte) (Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("decode seed catalog: %w", err)
	}
	return c, nil
}

// Validate reports duplicate ingredient names, recipe lines that reference
// ingredients missing from the catalog and lines without a positive amount.
func (c Catalog) Validate() []string {
	var problems []string
	known := make(map[string]struct{}, len(c.Ingredients))
	names := make(map[string]string, len(c.Ingredients))
	for _, ing := range c.Ingredients {
		known[ing.ID] = struct{}{}
		folded := strings.ToLower(strings.TrimSpace(ing.Name))
		if first, dup := names[folded]; dup {
			problems = append(problems, fmt.Sprintf("ingredient %s: name %q duplicates ingredient %s", ing.ID, ing.Name, first))
			continue
		}
		names[folded] = ing.ID
	}
	for _, r := range c.Recipes {
		if strings.TrimSpace(r.Name) == "" {
			problems = append(problems, fmt.Sprintf("recipe %s: name is empty", r.ID))
		}
		for _, l := range r.Lines {
			if _, ok := known[l.IngredientID]; !ok {
				problems = append(problems, fmt.Sprintf("recipe %s: Ingredient data missing (ID: %s)", r.ID, l.IngredientID))
			}
			if !l.Amount.IsPositive() {
				problems = append(problems, fmt.Sprintf("recipe %s: ingredient %s has non-positive amount %s", r.ID, l.IngredientID, l.Amount))
			}
		}
	}
	return problems
}

// Apply loads the catalog into the stores.
func Apply(ctx context.Context, c Catalog, inv *inventory.Service, recipes *recipe.Service) error {
	if inv != nil {
		if err := inv.Seed(ctx, c.Ingredients); err != nil {
			return fmt.Errorf("seed ingredients: %w", err)
		}
	}
	if recipes != nil {
		if err := recipes.Seed(ctx, c.Recipes); err != nil {
			return fmt.Errorf("seed recipes: %w", err)
		}
	}
	return nil
}
