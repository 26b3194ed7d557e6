// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Parsing and rendering go through
// shopspring/decimal so no value ever passes through a float.
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// maxCents keeps sums of a realistic number of transactions inside int64.
const maxCents = int64(1) << 53

// Exponent bounds for amounts written in exponent form. Rescaling cost
// grows with the exponent, so 1e999999999 is refused before rounding.
const (
	maxExponent = 18
	minExponent = -32
)

// ParseAmount converts a decimal string to cents with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Exponent form (1e2, 1.5E-1) is accepted as JSON clients may send it,
// within a bounded exponent range. Negative values and anything else that
// is not a decimal number are rejected; zero is accepted because direction
// is carried by the transaction type.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234, nil
//	ParseAmount("12,34")  -> 1234, nil
//	ParseAmount("12.345") -> 1235, nil (rounds half up)
//	ParseAmount("1e2")    -> 10000, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") && (d.Exponent() > maxExponent || d.Exponent() < minExponent) {
		return Money{}, ErrInvalidAmount
	}
	return fromDecimal(d)
}

func fromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(decimal.NewFromInt(maxCents)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m-o; the result may be negative (balances).
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// String renders the plain decimal form, e.g. "12.5".
func (m Money) String() string {
	return m.Decimal().String()
}

// MarshalJSON writes the amount as a JSON number in currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	var raw json.Number
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return ErrInvalidAmount
		}
		parsed, err := ParseAmount(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return ErrInvalidAmount
	}
	d, err := decimal.NewFromString(raw.String())
	if err != nil {
		return ErrInvalidAmount
	}
	parsed, err := fromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
