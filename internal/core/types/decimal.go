// Package types provides the numeric types used for quantities and money.
package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// Quantity is an exact decimal quantity of goods.
type Quantity = decimal.Decimal

// MustDecimal parses s, panics on error. Use only for constants and tests.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDecimal parses a decimal string, rejecting exponent notation.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty decimal")
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("exponent form is not accepted: %q", s)
	}
	return decimal.NewFromString(s)
}

// LineAmount returns quantity × unit price, unrounded.
func LineAmount(qty Quantity, price Money) Money {
	return qty.Mul(price)
}
