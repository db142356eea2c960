package pricing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CostMap maps an ingredient identifier to its cost per purchase unit.
type CostMap map[string]decimal.Decimal

// Lookup returns the cost per unit for id, or zero when the id is unknown.
func (m CostMap) Lookup(id string) decimal.Decimal {
	if m == nil {
		return decimal.Zero
	}
	if v, ok := m[id]; ok {
		return v
	}
	return decimal.Zero
}

// Clone returns an independent copy of the map.
func (m CostMap) Clone() CostMap {
	out := make(CostMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Line describes one ingredient quantity used when pricing a recipe.
type Line struct {
	IngredientID string
	Amount       decimal.Decimal
}

// plainNumber is an optionally signed run of digits with at most one decimal
// point. Exponent notation never matches.
var plainNumber = regexp.MustCompile(`^[+-]?\d*\.?\d*$`)

// ParseAmount reads a user supplied number. Partial input such as "5." or ".5"
// is accepted the same way a browser number parser would accept it.
func ParseAmount(text string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(text)
	if !plainNumber.MatchString(s) {
		return decimal.Zero, false
	}
	s = strings.TrimPrefix(s, "+")
	if s == "" || s == "." || s == "-" || s == "-." {
		return decimal.Zero, false
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	} else if strings.HasPrefix(s, "-.") {
		s = "-0" + s[1:]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// CostPerUnit divides the purchase cost by the purchased quantity. Missing or
// non-numeric values and non-positive quantities yield zero.
func CostPerUnit(cost, purchaseUnit string) decimal.Decimal {
	c, ok := ParseAmount(cost)
	if !ok || c.IsZero() {
		return decimal.Zero
	}
	u, ok := ParseAmount(purchaseUnit)
	if !ok || !u.IsPositive() {
		return decimal.Zero
	}
	return c.Div(u)
}

// LineCost prices a single recipe line.
func LineCost(costPerUnit, amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(costPerUnit)
}

// Total sums amount × cost per unit over lines. Ingredients absent from costs
// contribute nothing.
func Total(lines []Line, costs CostMap) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineCost(costs.Lookup(l.IngredientID), l.Amount))
	}
	return total
}
