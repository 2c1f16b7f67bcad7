package ledger

import "errors"

var (
	// ErrNoClaims indicates the account has no claim entries.
	ErrNoClaims = errors.New("ledger: account has no claims")

	// ErrNoClaimForAirdrop indicates the account has no entry for the airdrop.
	ErrNoClaimForAirdrop = errors.New("ledger: account has no claim for airdrop")

	// ErrDuplicateClaim indicates the account already has an entry for the airdrop.
	ErrDuplicateClaim = errors.New("ledger: account already has a claim for airdrop")

	// ErrNothingAvailable indicates nothing is claimable at this time.
	ErrNothingAvailable = errors.New("ledger: 0 available now")

	// ErrRollbackUnderflow indicates a rollback larger than the claimed amount.
	// It means reservation bookkeeping is broken.
	ErrRollbackUnderflow = errors.New("ledger: rollback exceeds claimed amount")

	// ErrEmptyAccount indicates an empty account identifier.
	ErrEmptyAccount = errors.New("ledger: empty account id")
)
