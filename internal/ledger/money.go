package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const minorExponent = 2

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a major-unit decimal string ("1500.50") to minor units.
// More than two fractional digits, zero and negative values are rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: amount required", ErrValidation)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}

	if d.Exponent() < -minorExponent && !d.Equal(d.Round(minorExponent)) {
		return 0, fmt.Errorf("%w: amount supports up to %d decimals", ErrValidation, minorExponent)
	}

	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}

	minor := d.Mul(hundred)
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(1<<62)) {
		return 0, fmt.Errorf("%w: amount out of range", ErrValidation)
	}

	return minor.IntPart(), nil
}

// FormatAmount renders minor units as a two-decimal major-unit string.
func FormatAmount(minor int64) string {
	return decimal.New(minor, -minorExponent).StringFixed(minorExponent)
}
