// Package format renders amounts for people to read.
package format

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Amount renders amount in the notation of currency, rounded to the
// currency's minor unit, e.g. "$1,234.50". Codes unknown to go-money are
// rendered as "1234.50 XYZ".
func Amount(amount float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, currency)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// Totals renders a currency → amount mapping as a comma separated list
// ordered by currency code. An empty mapping renders as "-".
func Totals(totals map[string]float64) string {
	if len(totals) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(totals))
	for _, code := range slices.Sorted(maps.Keys(totals)) {
		parts = append(parts, Amount(totals[code], code))
	}
	return strings.Join(parts, ", ")
}
