// README: Fare card rows derived from an estimate.
package pricing

import (
	"fmt"

	"ridebook/internal/types"
)

type BreakdownRow struct {
	Label   string  `json:"label"`
	Amount  float64 `json:"amount"`
	Display string  `json:"display"`
	IsTotal bool    `json:"isTotal,omitempty"`
}

// BreakdownRows lists base, distance, time, surge (only when charged), taxes,
// discount (only when applied, as a negative amount) and the total.
func BreakdownRows(f FareEstimate, currency string) []BreakdownRow {
	rows := []BreakdownRow{
		row("Base fare", f.BaseFare, currency),
		row("Distance", f.DistanceFare, currency),
		row("Time", f.TimeFare, currency),
	}
	if f.SurgeFare > 0 {
		rows = append(rows, row(fmt.Sprintf("Surge (x%.1f)", f.SurgeMultiplier), f.SurgeFare, currency))
	}
	rows = append(rows, row("Taxes", f.Taxes, currency))
	if f.Discount > 0 {
		rows = append(rows, row("Discount", -f.Discount, currency))
	}
	total := row("Total", f.Total, currency)
	total.IsTotal = true
	return append(rows, total)
}

func row(label string, amount float64, currency string) BreakdownRow {
	amount = types.RoundMoney(amount)
	return BreakdownRow{Label: label, Amount: amount, Display: types.FormatMoney(amount, currency)}
}
