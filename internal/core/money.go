// Package core holds the budgeting domain types.
//
// Money is kept as integer cents everywhere inside the process. Conversion
// to and from decimal text only happens at the edges (JSON, CLI, sheets).
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("too many decimal places")
	ErrAmountTooLarge  = errors.New("amount too large")
)

// MaxDigits bounds amounts to 10 significant digits with 2 decimal places.
const MaxDigits = 10

var maxAmount = decimal.New(1, MaxDigits-2)

// Cents builds Money from an integer amount of cents.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// MoneyFromDecimal converts an exact decimal amount to Money.
// It refuses more than two decimal places instead of rounding.
//
// Examples:
//
//	MoneyFromDecimal(12.34)  -> 1234
//	MoneyFromDecimal(12.340) -> 1234
//	MoneyFromDecimal(12.345) -> ErrTooManyDecimals
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Round(2)) {
		return Money{}, ErrTooManyDecimals
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return Money{}, ErrAmountTooLarge
	}
	return Money{Cents: d.Shift(2).IntPart()}, nil
}

// ParseMoney parses a decimal string with a dot separator. Commas are
// rejected rather than read as grouping or decimal marks.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimals, e.g. "1500.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON emits the amount as a decimal string so clients never see
// binary floating point values.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m Money) Add(n Money) Money { return Money{Cents: m.Cents + n.Cents} }
func (m Money) Sub(n Money) Money { return Money{Cents: m.Cents - n.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }
func (m Money) IsNegative() bool  { return m.Cents < 0 }
func (m Money) IsPositive() bool  { return m.Cents > 0 }
