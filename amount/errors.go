package amount

import "errors"

var (
	// ErrInvalidAmount indicates the string is not a plain non-negative decimal number.
	ErrInvalidAmount = errors.New("amount: invalid amount string")

	// ErrTooManyDecimals indicates the string has more fractional digits than the token supports.
	ErrTooManyDecimals = errors.New("amount: too many decimals in the string amount")

	// ErrOverflow indicates the value does not fit in 128 bits.
	ErrOverflow = errors.New("amount: value exceeds 128 bits")

	// ErrUnderflow indicates a subtraction would go below zero.
	ErrUnderflow = errors.New("amount: subtraction underflow")
)
