package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smoothie-scribe/internal/inventory"
	"github.com/noah-isme/smoothie-scribe/internal/recipe"
	"github.com/noah-isme/smoothie-scribe/internal/seed"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := seed.Default()
	require.NoError(t, err)
	require.Len(t, c.Ingredients, 14)
	require.Len(t, c.Recipes, 2)
	require.Empty(t, c.Validate())
	require.Equal(t, inventory.UnitMilliliter, c.Ingredients[13].Unit)
}

func TestApplyDefaultCatalog(t *testing.T) {
	ctx := context.Background()
	c, err := seed.Default()
	require.NoError(t, err)

	inv := inventory.NewService(inventory.ServiceConfig{})
	recipes, err := recipe.NewService(recipe.ServiceConfig{Catalog: inv})
	require.NoError(t, err)
	require.NoError(t, seed.Apply(ctx, c, inv, recipes))

	list := recipes.List(ctx)
	require.Len(t, list, 2)
	require.Equal(t, "Berry Basic", list[0].Name)
	require.Equal(t, 4, list[0].IngredientCount)
	require.Equal(t, "$3.35", list[0].TotalLabel)
	require.Equal(t, "Keto Green God", list[1].Name)
	require.Equal(t, "$3.21", list[1].TotalLabel)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"ingredients": [{"id": "a", "name": "Apple", "purchaseCost": "2.00", "purchaseUnit": "1000", "unit": "g"}],
		"recipes": [{"id": "x", "name": "Apple Juice", "ingredients": [{"ingredientId": "b", "amount": "10"}]}]
	}`), 0o600))

	c, err := seed.Load(path)
	require.NoError(t, err)
	require.Len(t, c.Ingredients, 1)
	require.Equal(t, []string{"recipe x: Ingredient data missing (ID: b)"}, c.Validate())

	_, err = seed.Load(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := seed.Parse([]byte(`{"ingredients": [], "extra": true}`))
	require.Error(t, err)
}

func TestValidateReportsDuplicateNames(t *testing.T) {
	c, err := seed.Parse([]byte(`{
		"ingredients": [
			{"id": "a", "name": "Kale", "purchaseCost": "4.00", "purchaseUnit": "200", "unit": "g"},
			{"id": "b", "name": " kale ", "purchaseCost": "3.00", "purchaseUnit": "100", "unit": "g"}
		],
		"recipes": []
	}`))
	require.NoError(t, err)
	require.Equal(t, []string{`ingredient b: name " kale " duplicates ingredient a`}, c.Validate())
}
