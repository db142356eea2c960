package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders v as US dollars with thousands separators, e.g. "$1,234.56".
func FormatCurrency(v decimal.Decimal) string {
	rounded := v.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	fixed := rounded.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "$" + groupThousands(whole) + "." + frac
}

// FormatCostPerUnit renders a per-unit price with four decimals, e.g. "$0.0060 / g".
func FormatCostPerUnit(v decimal.Decimal, unit string) string {
	if v.IsZero() {
		return "$0.0000 / " + unit
	}
	return "$" + v.StringFixed(4) + " / " + unit
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
