package amount

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Parse converts a human decimal string such as "200.2" into base units of a
// token with the given precision. The string may contain digits and at most
// one decimal point; signs, exponents and whitespace are rejected.
//
//	Parse("200.2", 6)   = 200200000
//	Parse("1200230", 6) = 1200230000000
func Parse(s string, decimals uint8) (*uint256.Int, error) {
	if !isPlainDecimal(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, err)
	}
	if frac := -d.Exponent(); frac > int32(decimals) {
		return nil, fmt.Errorf("%w: %q has %d, token supports %d", ErrTooManyDecimals, s, frac, decimals)
	}

	z, overflow := uint256.FromBig(d.Shift(int32(decimals)).BigInt())
	if overflow || !Fits(z) {
		return nil, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return z, nil
}

// FromString parses a base-unit integer string (no decimal point).
func FromString(s string) (*uint256.Int, error) {
	if s == "" || strings.Trim(s, "0123456789") != "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	z, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, err)
	}
	if !Fits(z) {
		return nil, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return z, nil
}

// Format renders base units as a human decimal string, e.g. 200200000 with
// 6 decimals becomes "200.2".
func Format(x *uint256.Int, decimals uint8) string {
	return decimal.NewFromBigInt(x.ToBig(), -int32(decimals)).String()
}

// isPlainDecimal reports whether s is digits with at most one '.'.
func isPlainDecimal(s string) bool {
	if s == "" || s == "." {
		return false
	}
	points := 0
	for _, r := range s {
		switch {
		case r == '.':
			points++
			if points > 1 {
				return false
			}
		case r < '0' || r > '9':
			return false
		}
	}
	return true
}
