// Package core holds the budget domain model and the valuation rules
// applied to publication lines, budgets and consolidated reports.
//
// This file contains the Amount type used for every monetary field.
// Amounts are backed by arbitrary-precision decimals so that unit rates,
// multipliers and totals never suffer binary floating point drift.
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal monetary (or multiplier) value.
//
// The zero value is a valid amount of 0. Parsing is deliberately lenient:
// any input that cannot be read as a number yields the zero amount rather
// than an error, so a half-filled form never blocks valuation.
type Amount struct {
	d decimal.Decimal
}

// NewAmount builds an Amount from a float. Intended for literals in tests
// and seed data; persisted values should round-trip through strings.
func NewAmount(v float64) Amount {
	return Amount{d: decimal.NewFromFloat(v)}
}

// AmountFromDecimal wraps an existing decimal.
func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// ParseAmount reads a decimal string accepting both dot (12.34) and
// comma (12,34) separators. Blank or malformed input coerces to zero.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return Amount{d: d}
}

// Add returns a+b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Mul returns a*b.
func (a Amount) Mul(b Amount) Amount {
	return Amount{d: a.d.Mul(b.d)}
}

// Cmp compares two amounts: -1 if a<b, 0 if equal, +1 if a>b.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports whether the two amounts have the same numeric value,
// regardless of exponent (1.5 equals 1.50).
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// Decimal exposes the underlying decimal for storage adapters.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// Float64 returns the amount as a float for libraries that require one
// (spreadsheet cells, PDF tables). Not for arithmetic.
func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// String renders the amount with two decimal places and a dot separator,
// the canonical export format.
func (a Amount) String() string {
	return a.d.StringFixed(2)
}

// MarshalJSON renders the amount as a JSON string with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string in
// either separator convention. Malformed values coerce to zero and do
// not fail the surrounding decode.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*a = Amount{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	*a = ParseAmount(s)
	return nil
}
