package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormatCurrency(t *testing.T) {
	require.Equal(t, "$0.00", FormatCurrency(decimal.Zero))
	require.Equal(t, "$5.00", FormatCurrency(decimal.NewFromInt(5)))
	require.Equal(t, "$1,234.57", FormatCurrency(decimal.RequireFromString("1234.567")))
	require.Equal(t, "$1,000,000.00", FormatCurrency(decimal.NewFromInt(1000000)))
	require.Equal(t, "-$2.50", FormatCurrency(decimal.RequireFromString("-2.5")))
}

func TestFormatCostPerUnit(t *testing.T) {
	require.Equal(t, "$0.0000 / ml", FormatCostPerUnit(decimal.Zero, "ml"))
	require.Equal(t, "$0.0160 / g", FormatCostPerUnit(decimal.RequireFromString("0.016"), "g"))
}
