// Package core holds the ledger domain: users, financial events and the
// balance arithmetic that ties them together.
//
// This file contains money parsing and formatting. Amounts are held as
// signed integer cents; decimal strings from user input are converted once
// at the boundary and never handled as floats.
package core

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Money is an amount in integer cents. The running balance is a signed
// Money; event amounts are non-negative by validation.
type Money struct {
	Cents int64
}

var centsFactor = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to positive cents, rounding
// half-up on the third decimal place. Used for deposit and withdrawal
// amounts, which must be strictly positive.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234, nil
//	ParseAmount("12.345") -> 1235, nil (rounds up)
//	ParseAmount("0")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	m, err := parseCents(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseNonNegativeAmount converts a decimal string to cents, allowing
// zero. Used for daily-entry profit and loss, where an empty field means
// nothing gained or lost that day.
func ParseNonNegativeAmount(s string) (Money, error) {
	if s == "" {
		return Money{}, nil
	}
	m, err := parseCents(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents < 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

func parseCents(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Mul(centsFactor).Round(0).IntPart()}, nil
}

// String formats the amount as a plain decimal, e.g. "12.34" or "-0.05".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + pad2(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
