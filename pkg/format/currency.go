// Package format renders amounts the way Brazilian contracts print them.
package format

import (
	"github.com/iwvelando/loan-revision/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Printer groups thousands with "." and uses "," as the decimal separator.
var Printer = message.NewPrinter(language.BrazilianPortuguese)

// Currency returns an amount in reais with thousands separators (e.g., "-R$ 1.234,56").
func Currency(amount float64) string {
	rounded := mathutil.Round(amount)
	if rounded < 0 {
		return Printer.Sprintf("-R$ %.2f", -rounded)
	}
	return Printer.Sprintf("R$ %.2f", rounded)
}

// NumericCurrency returns the amount without the currency symbol (e.g., "-1.234,56").
func NumericCurrency(amount float64) string {
	return Printer.Sprintf("%.2f", mathutil.Round(amount))
}

// Percent renders a value already expressed in percent (e.g., "1,23%").
func Percent(value float64) string {
	return Printer.Sprintf("%.2f%%", mathutil.Round(value))
}
