package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCostPerUnit(t *testing.T) {
	cases := []struct {
		name string
		cost string
		unit string
		want string
	}{
		{"beets", "3.00", "500", "0.006"},
		{"trailing dot", "5.", "10", "0.5"},
		{"leading dot", ".5", "5", "0.1"},
		{"zero unit", "3.00", "0", "0"},
		{"empty unit", "3.00", "", "0"},
		{"empty cost", "", "500", "0"},
		{"non numeric", "abc", "500", "0"},
		{"zero cost", "0", "500", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CostPerUnit(tc.cost, tc.unit)
			require.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestTotalSkipsMissingIngredients(t *testing.T) {
	costs := CostMap{
		"i1":  CostPerUnit("3.00", "500"),
		"i14": CostPerUnit("4.50", "1000"),
	}
	lines := []Line{
		{IngredientID: "i1", Amount: decimal.NewFromInt(100)},
		{IngredientID: "i14", Amount: decimal.NewFromInt(250)},
		{IngredientID: "gone", Amount: decimal.NewFromInt(80)},
	}
	total := Total(lines, costs)
	require.True(t, total.Equal(decimal.RequireFromString("1.725")), "got %s", total)
	require.Equal(t, "$1.73", FormatCurrency(total))
}

func TestLineCostExample(t *testing.T) {
	cpu := CostPerUnit("3.00", "500")
	require.Equal(t, "$0.0060 / g", FormatCostPerUnit(cpu, "g"))
	require.Equal(t, "$0.60", FormatCurrency(LineCost(cpu, decimal.NewFromInt(100))))
}

func TestZeroUnitDropsContribution(t *testing.T) {
	costs := CostMap{"i1": CostPerUnit("3.00", "0"), "i2": CostPerUnit("5.50", "454")}
	lines := []Line{
		{IngredientID: "i1", Amount: decimal.NewFromInt(100)},
		{IngredientID: "i2", Amount: decimal.NewFromInt(100)},
	}
	require.True(t, Total(lines, costs).Equal(LineCost(costs["i2"], decimal.NewFromInt(100))))
}

func TestParseAmount(t *testing.T) {
	_, ok := ParseAmount("")
	require.False(t, ok)
	_, ok = ParseAmount(".")
	require.False(t, ok)
	v, ok := ParseAmount(" 12 ")
	require.True(t, ok)
	require.True(t, v.Equal(decimal.NewFromInt(12)))

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"-5", "-5", true},
		{"+2.5", "2.5", true},
		{"-.5", "-0.5", true},
		{"1e3000000", "", false},
		{"1E5", "", false},
		{"2.5e-3", "", false},
		{"5abc", "", false},
		{"1.2.3", "", false},
		{"-", "", false},
		{"+.", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		require.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			require.True(t, got.Equal(decimal.RequireFromString(tc.want)), "%s: got %s", tc.in, got)
		}
	}
	require.True(t, CostPerUnit("1e3000000", "1").IsZero())
}

func TestCostMapLookupAndClone(t *testing.T) {
	var empty CostMap
	require.True(t, empty.Lookup("x").IsZero())

	m := CostMap{"a": decimal.NewFromInt(1)}
	c := m.Clone()
	c["a"] = decimal.NewFromInt(2)
	require.True(t, m.Lookup("a").Equal(decimal.NewFromInt(1)))
}
