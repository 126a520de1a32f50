package loot

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatFigure renders v with thousands grouping and at most decimals
// fraction digits, e.g. 12345.678 with 2 decimals is "12,345.68".
func FormatFigure(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	p := message.NewPrinter(language.English)
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(decimals)))
}
