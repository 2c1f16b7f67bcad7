package registry

import "errors"

var (
	// ErrAirdropNotFound indicates no airdrop exists at the given index.
	ErrAirdropNotFound = errors.New("registry: airdrop not found")

	// ErrNoOpStatusChange indicates the airdrop already has the requested status.
	ErrNoOpStatusChange = errors.New("registry: airdrop status is already set")

	// ErrInvalidStatus indicates an unknown status code.
	ErrInvalidStatus = errors.New("registry: invalid airdrop status")

	// ErrWrongStatus indicates the airdrop's status does not allow the operation.
	ErrWrongStatus = errors.New("registry: wrong airdrop status for operation")

	// ErrRegistryFull indicates every 16-bit airdrop index is taken.
	ErrRegistryFull = errors.New("registry: airdrop index space exhausted")

	// ErrClaimExceedsDistribution indicates total claimed would pass total distributed.
	ErrClaimExceedsDistribution = errors.New("registry: total claimed exceeds total distributed")

	// ErrRevertUnderflow indicates a claim revert larger than total claimed.
	ErrRevertUnderflow = errors.New("registry: revert exceeds total claimed")
)
