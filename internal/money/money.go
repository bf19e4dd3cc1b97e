// Package money converts between the 2-decimal fixed-point amounts spoken by
// the API and the int64 minor units the ledger stores.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount indicates an amount that is not a positive fixed-point
// number with at most two fractional digits.
var ErrInvalidAmount = errors.New("invalid amount")

// Parse converts a decimal string such as "30.00" into minor units (cents).
// Amounts must be strictly positive and carry at most two fractional digits.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: more than two decimal places", ErrInvalidAmount)
	}
	return cents.IntPart(), nil
}

// Format renders minor units as a fixed two-decimal string, e.g. 3000 -> "30.00".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
