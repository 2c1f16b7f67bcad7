package settlement

import "errors"

var (
	// ErrAirdropNotEnabled indicates a claim against an airdrop that is not enabled.
	ErrAirdropNotEnabled = errors.New("settlement: airdrop is not enabled")

	// ErrUnknownHandle indicates a resolve for a handle that was never issued.
	ErrUnknownHandle = errors.New("settlement: unknown settlement handle")

	// ErrInvalidOutcome indicates an outcome other than success or failure.
	ErrInvalidOutcome = errors.New("settlement: invalid transfer outcome")

	// ErrRollbackFailed indicates the compensating rollback could not be applied.
	ErrRollbackFailed = errors.New("settlement: rollback failed")
)
