// Package core holds the planner's domain types and the parsing helpers
// shared by the ledger backends and the forecast client.
package core

import (
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ParseAmount converts a ledger amount string into a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Ledgers store expenses either signed or as
// magnitudes, so negative values are valid here.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("-12,34") -> -12.34
//	ParseAmount("€ 5")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	body := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	parts := strings.Split(body, ".")
	if len(parts) > 2 || (parts[0] == "" && (len(parts) == 1 || parts[1] == "")) {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatEUR renders an amount as euros, rounded half-up to the cent.
func FormatEUR(d decimal.Decimal) string {
	cents := d.Round(2).Shift(2).IntPart()
	return money.New(cents, money.EUR).Display()
}
