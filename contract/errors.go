package contract

import "errors"

var (
	// ErrUnauthorized indicates the caller lacks the owner or operator role.
	ErrUnauthorized = errors.New("contract: unauthorized")

	// ErrAmountMismatch indicates the parsed claim amounts do not sum to the declared total.
	ErrAmountMismatch = errors.New("contract: total distributed differs from total amount")

	// ErrInvalidAccount indicates an empty account id.
	ErrInvalidAccount = errors.New("contract: invalid account id")

	// ErrInvalidToken indicates an empty token id.
	ErrInvalidToken = errors.New("contract: invalid token id")

	// ErrUnknownSettlement indicates no settlement exists for the id.
	ErrUnknownSettlement = errors.New("contract: unknown settlement")

	// ErrSettlementInFlight indicates the settlement's transfer is still
	// running and its outcome will be recorded when it returns.
	ErrSettlementInFlight = errors.New("contract: settlement transfer in flight")

	// ErrClosed indicates the contract no longer accepts calls.
	ErrClosed = errors.New("contract: closed")
)
