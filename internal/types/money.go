// README: Money helpers for fare amounts (float currency units, 2 decimals).
package types

import (
	"fmt"
	"math"
)

// MoneyTolerance is the rounding tolerance used when comparing fare sums.
const MoneyTolerance = 0.01

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"TWD": "NT$",
	"JPY": "¥",
}

// RoundMoney rounds to 2 decimal places.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// MoneyEqual compares two amounts within MoneyTolerance.
func MoneyEqual(a, b float64) bool {
	return math.Abs(a-b) <= MoneyTolerance+1e-9
}

// FormatMoney renders an amount with the currency symbol; negative amounts keep a leading minus.
func FormatMoney(amount float64, currency string) string {
	sym, ok := currencySymbols[currency]
	if !ok {
		sym = currency + " "
	}
	amount = RoundMoney(amount)
	if currency == "JPY" {
		if amount < 0 {
			return fmt.Sprintf("-%s%.0f", sym, -amount)
		}
		return fmt.Sprintf("%s%.0f", sym, amount)
	}
	if amount < 0 {
		return fmt.Sprintf("-%s%.2f", sym, -amount)
	}
	return fmt.Sprintf("%s%.2f", sym, amount)
}
