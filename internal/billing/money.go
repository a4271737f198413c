package billing

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Round2 rounds a monetary value to 2 fraction digits. All derived amounts in
// the engine go through this helper so totals stay stable under recomputation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var displayPrinter = message.NewPrinter(language.French)

// DisplayAmount formats an amount for display with grouped digits and no
// fraction part (FCFA has no subunit in display). Internal precision stays at
// 2 decimals regardless of what is shown.
func DisplayAmount(v float64, currency string) string {
	formatted := displayPrinter.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
	if currency == "" {
		return formatted
	}
	return formatted + " " + currency
}
