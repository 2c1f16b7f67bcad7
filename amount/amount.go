// Package amount implements token amounts as 128-bit unsigned integers.
//
// Values are carried in uint256.Int so intermediate products have headroom,
// but every stored amount must fit in MaxBits bits.
package amount

import (
	"fmt"

	"github.com/holiman/uint256"
)

// MaxBits is the width of every stored amount.
const MaxBits = 128

// Max returns the largest representable amount (2^128 - 1).
func Max() *uint256.Int {
	z := new(uint256.Int).SetAllOne()
	return z.Rsh(z, 256-MaxBits)
}

// Fits reports whether x fits in MaxBits bits.
func Fits(x *uint256.Int) bool {
	return x.BitLen() <= MaxBits
}

// Zero returns a new zero amount.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// Add returns a + b, or ErrOverflow if the sum does not fit in 128 bits.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow || !Fits(z) {
		return nil, fmt.Errorf("%w: %s + %s", ErrOverflow, a.Dec(), b.Dec())
	}
	return z, nil
}

// Sub returns a - b, or ErrUnderflow if b > a.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	if a.Lt(b) {
		return nil, fmt.Errorf("%w: %s - %s", ErrUnderflow, a.Dec(), b.Dec())
	}
	return new(uint256.Int).Sub(a, b), nil
}

// SaturatingSub returns a - b, or zero if b > a.
func SaturatingSub(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(a, b)
}
