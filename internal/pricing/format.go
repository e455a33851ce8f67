package pricing

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySuffix is appended to every formatted price
const CurrencySuffix = "đ"

var printer = message.NewPrinter(language.English)

// FormatVND formats whole đồng with comma thousands separators:
// 100000 -> "100,000đ". Fractions are rounded away; non-finite values print as 0.
func FormatVND(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	return printer.Sprintf("%d", int64(math.Round(amount))) + CurrencySuffix
}

// DiscountBadge returns the "-20%" badge text, rounded to one decimal place,
// or "" without a discount
func DiscountBadge(percent *float64) string {
	if percent == nil || math.IsNaN(*percent) || math.IsInf(*percent, 0) {
		return ""
	}
	rounded := decimal.NewFromFloat(*percent).Round(1)
	if !rounded.IsPositive() {
		return ""
	}
	return "-" + rounded.String() + "%"
}
