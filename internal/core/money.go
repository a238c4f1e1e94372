// Package core holds the domain types of the budget engine.
//
// This file contains amount parsing and formatting helpers. Amounts are
// decimal.Decimal throughout: signed, negative for expenses, positive for
// income. Float arithmetic never touches envelope math.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string into a signed amount. It accepts both
// dot (12.34) and comma (12,34) separators, since bank labels in the wild use
// either. A zero amount is rejected.
//
// Examples:
//
//	ParseAmount("-13,99") -> -13.99, nil
//	ParseAmount("2500")   -> 2500, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsZero() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FloorToFive rounds an amount down to the nearest multiple of five. Envelope
// ceilings land on round numbers; the shaved remainder is returned to the
// user as an unallocated bonus envelope.
func FloorToFive(d decimal.Decimal) decimal.Decimal {
	five := decimal.NewFromInt(5)
	return d.Div(five).Floor().Mul(five)
}

// FormatEuros renders an amount as a Euro string for advisory messages,
// e.g. "123.45 €".
func FormatEuros(d decimal.Decimal) string {
	return d.StringFixed(2) + " €"
}
