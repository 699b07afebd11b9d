// Package core provides the domain model for the finance tracker.
//
// This file contains parsing and conversion between cent amounts and their
// decimal string representation. All arithmetic in the application happens
// on cents; decimals exist only at the input and display boundaries.
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var centsFactor = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to cents with half-up rounding on
// the third decimal place. It accepts both dot (12.34) and comma (12,34)
// separators. Returns an error for invalid formats, negative values, or
// zero amounts.
//
// Examples:
//
//	ParseAmount("12.34") -> 1234, nil
//	ParseAmount("12,34") -> 1234, nil
//	ParseAmount("12.346") -> 1235, nil (rounds up)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Mul(centsFactor).Round(0)
	if !cents.IsInteger() || !cents.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Cents: cents.IntPart()}
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseNonNegativeAmount is ParseAmount for fields where zero is a valid
// value, such as the financial health inputs.
func ParseNonNegativeAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" || s == "0" {
		return Money{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsZero() {
		return Money{}, nil
	}
	return ParseAmount(s)
}

// Units returns the amount in currency units as a float64. Display and
// ratio math only; keep cents for exact sums.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount as a plain decimal with two fraction digits.
func (m Money) String() string {
	return decimal.NewFromInt(m.Cents).Div(centsFactor).StringFixed(2)
}

// MarshalJSON renders the amount as a decimal string ("12.34"). Strings
// keep API payloads exact; clients parse them with their own decimal type.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a decimal string and converts it to cents.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidAmount
	}
	parsed, err := ParseNonNegativeAmount(s)
	if err != nil {
		return err
	}
	m.Cents = parsed.Cents
	return nil
}
