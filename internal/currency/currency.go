// Package currency formats monetary amounts the way documents show them.
package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/Tiliavir/shiftpay/internal/timecalc"
)

// Symbol prefixes every formatted amount.
const Symbol = "R$"

// Locale drives grouping and decimal separators.
var Locale = language.BrazilianPortuguese

// Format renders v rounded to cents, e.g. "R$ 1.234,56".
func Format(v float64) string {
	p := message.NewPrinter(Locale)
	return Symbol + " " + p.Sprint(number.Decimal(timecalc.Round2(v),
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
