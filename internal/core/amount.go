// Package core provides the customer/transaction model and the pure
// filter, group and aggregate functions the dashboard is derived from.
//
// This file contains amount parsing and the canonical amount string used by
// the amount filter.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// AmountString returns the canonical printed form of an amount: no trailing
// fractional zeros and no exponent, so 10 -> "10", 10.50 -> "10.5".
//
// The amount filter matches against this string. Plain notation is used at
// every magnitude: 1e-7 prints as "0.0000001" and 1e21 as
// "1000000000000000000000", so a query such as "e-7" or "e+21" never matches.
func AmountString(d decimal.Decimal) string {
	return d.String()
}

// ParseAmount converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Unlike a plain decimal.NewFromString it rejects
// exponents and thousands separators, which never appear in source data.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-5")    -> -5, nil
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
