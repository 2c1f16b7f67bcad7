package accounting

import "errors"

var (
	// ErrNotFunded indicates the external balance cannot back the tokens in claims,
	// or there is nothing in claims to back.
	ErrNotFunded = errors.New("accounting: token not funded")

	// ErrSettleUnderflow indicates a settlement larger than the tokens in claims.
	// It means reservation bookkeeping is broken.
	ErrSettleUnderflow = errors.New("accounting: settle exceeds total in claims")

	// ErrEmptyToken indicates an empty token identifier.
	ErrEmptyToken = errors.New("accounting: empty token id")
)
