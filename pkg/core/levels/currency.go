package levels

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var usPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders a whole-dollar USD amount, e.g. 1234.4 -> "$1,234"
func FormatCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "$0"
	}

	rounded := math.Round(amount)
	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}

	return sign + "$" + usPrinter.Sprint(number.Decimal(rounded, number.MaxFractionDigits(0)))
}
