package recipe_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smoothie-scribe/internal/pricing"
	"github.com/noah-isme/smoothie-scribe/internal/recipe"
)

func TestDraftAddIngredientMergesExistingLine(t *testing.T) {
	d := recipe.NewDraft("r1")
	require.NoError(t, d.AddIngredient("i1", "100"))
	require.NoError(t, d.AddIngredient("i1", "50"))
	require.Len(t, d.Lines, 1)
	require.Equal(t, "150", d.Lines[0].Amount)

	require.NoError(t, d.AddIngredient("i2", "2.5"))
	require.Len(t, d.Lines, 2)
	require.Equal(t, "2.5", d.Lines[1].Amount)
}

func TestDraftAddIngredientTreatsBlankAmountAsZero(t *testing.T) {
	d := recipe.NewDraft("r1")
	require.NoError(t, d.AddIngredient("i1", "10"))
	require.NoError(t, d.SetAmount(0, ""))
	require.NoError(t, d.AddIngredient("i1", "5"))
	require.Equal(t, "5", d.Lines[0].Amount)
}

func TestDraftAddIngredientRejectsInvalid(t *testing.T) {
	d := recipe.NewDraft("r1")
	for _, tc := range []struct{ id, amount string }{
		{"", "10"},
		{"i1", ""},
		{"i1", "0"},
		{"i1", "-5"},
		{"i1", "abc"},
		{"i1", "1e2000000"},
	} {
		require.ErrorIs(t, d.AddIngredient(tc.id, tc.amount), recipe.ErrInvalidAmount, "%+v", tc)
	}
	require.Empty(t, d.Lines)
}

func TestDraftSetAmountIntegerOnly(t *testing.T) {
	d := recipe.NewDraft("r1")
	require.NoError(t, d.AddIngredient("i1", "100"))

	require.ErrorIs(t, d.SetAmount(0, "1.5"), recipe.ErrRejectedInput)
	require.ErrorIs(t, d.SetAmount(0, "-1"), recipe.ErrRejectedInput)
	require.Equal(t, "100", d.Lines[0].Amount)

	require.NoError(t, d.SetAmount(0, ""))
	require.Equal(t, "", d.Lines[0].Amount)
	require.NoError(t, d.SetAmount(0, "75"))
	require.Equal(t, "75", d.Lines[0].Amount)

	require.ErrorIs(t, d.SetAmount(3, "1"), recipe.ErrLineNotFound)
}

func TestDraftRemoveLine(t *testing.T) {
	d := recipe.NewDraft("r1")
	require.NoError(t, d.AddIngredient("i1", "1"))
	require.NoError(t, d.AddIngredient("i2", "2"))
	require.NoError(t, d.AddIngredient("i3", "3"))

	clone := d.Clone()
	require.NoError(t, d.RemoveLine(1))
	require.Equal(t, []recipe.DraftLine{{IngredientID: "i1", Amount: "1"}, {IngredientID: "i3", Amount: "3"}}, d.Lines)
	require.Len(t, clone.Lines, 3, "clone is unaffected")
	require.ErrorIs(t, d.RemoveLine(-1), recipe.ErrLineNotFound)
}

func TestDraftFinalize(t *testing.T) {
	d := recipe.NewDraft("r9")
	d.Rename("  Green  ")
	require.NoError(t, d.AddIngredient("i1", "100"))
	require.NoError(t, d.AddIngredient("i2", "20"))
	require.NoError(t, d.SetAmount(1, ""))

	r, err := d.Finalize()
	require.NoError(t, err)
	require.Equal(t, "r9", r.ID)
	require.Equal(t, "Green", r.Name)
	require.Len(t, r.Lines, 1)
	require.True(t, r.Lines[0].Amount.Equal(decimal.NewFromInt(100)))
}

func TestDraftFinalizeRejections(t *testing.T) {
	d := recipe.NewDraft("r9")
	require.NoError(t, d.AddIngredient("i1", "100"))
	d.Rename("   ")
	_, err := d.Finalize()
	require.ErrorIs(t, err, recipe.ErrNameRequired)
	require.Equal(t, "Recipe must have a name.", recipe.Notice(err))

	d.Rename("Empty")
	require.NoError(t, d.SetAmount(0, "0"))
	_, err = d.Finalize()
	require.ErrorIs(t, err, recipe.ErrNoValidLines)
	require.Equal(t, "Recipe must have at least one ingredient with a positive amount.", recipe.Notice(err))
}

func TestDraftTotalUsesRawAmounts(t *testing.T) {
	costs := pricing.CostMap{"i1": decimal.RequireFromString("0.006")}
	d := recipe.NewDraft("r1")
	require.NoError(t, d.AddIngredient("i1", "100"))
	require.NoError(t, d.AddIngredient("gone", "50"))
	require.Equal(t, "$0.60", pricing.FormatCurrency(d.Total(costs)))

	require.NoError(t, d.SetAmount(0, ""))
	require.True(t, d.Total(costs).IsZero())
}

func TestDraftOfRendersAmountsAsText(t *testing.T) {
	r := recipe.Recipe{ID: "r1", Name: "Berry Basic", Lines: []recipe.Line{
		{IngredientID: "i2", Amount: decimal.NewFromInt(100)},
		{IngredientID: "i9", Amount: decimal.RequireFromString("50.5")},
	}}
	d := recipe.DraftOf(r)
	require.Equal(t, "Berry Basic", d.Name)
	require.Equal(t, []recipe.DraftLine{{IngredientID: "i2", Amount: "100"}, {IngredientID: "i9", Amount: "50.5"}}, d.Lines)
}
