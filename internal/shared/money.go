package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an integral rupiah amount with grouping,
// e.g. 1250000 -> "Rp1.250.000".
func FormatRupiah(amount int64) string {
	return moneyPrinter.Sprintf("Rp%d", amount)
}
