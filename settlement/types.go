// Package settlement drives a claim from reservation to commit or rollback.
//
// A claim moves through Requested -> Reserved -> TransferPending and ends
// Committed or RolledBack. Begin performs the synchronous reservation and
// returns a correlation Handle; Resolve is called later with the outcome of
// the external transfer. Each handle resolves at most once.
//
// There is no timeout: a handle that is never resolved keeps its amount
// reserved indefinitely.
package settlement

import (
	"fmt"
	"time"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/holiman/uint256"
)

// Phase is an observable step of the claim state machine. Requesting and
// reserving happen inside one Begin call and are never recorded.
type Phase string

const (
	PhaseTransferPending Phase = "transfer_pending"
	PhaseCommitted       Phase = "committed"
	PhaseRolledBack      Phase = "rolled_back"
)

// Outcome is the result reported by the external transfer.
type Outcome uint8

const (
	OutcomeSuccess Outcome = iota + 1
	OutcomeFailure
)

// String returns "success" or "failure".
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// ParseOutcome converts "success" or "failure" to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "success":
		return OutcomeSuccess, nil
	case "failure":
		return OutcomeFailure, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
}

// EventKind names an observable settlement event.
type EventKind string

const (
	EventClaimCommitted  EventKind = "claim_committed"
	EventClaimRolledBack EventKind = "claim_rolled_back"
)

// Handle is the correlation token carried by an external transfer.
type Handle struct {
	ID        string
	Account   string
	AirdropID uint16
	TokenID   string
	Amount    uint256.Int
	CreatedAt time.Time
}

// Settlement is the final record of a resolved handle.
type Settlement struct {
	Handle
	Phase      Phase
	Reason     string
	EventID    string
	ResolvedAt time.Time
}

// Event is emitted once per resolved handle.
type Event struct {
	ID   string
	Kind EventKind
	Settlement
}

// HandleID derives a handle id from the correlation fields and a sequence
// number unique within the book.
func HandleID(account string, airdropID uint16, amt *uint256.Int, seq uint64) string {
	buf := fmt.Appendf(nil, "%s|%d|%s|%d", account, airdropID, amt.Dec(), seq)
	return chainhash.DoubleHashH(buf).String()
}

func eventOf(s Settlement) Event {
	kind := EventClaimCommitted
	if s.Phase == PhaseRolledBack {
		kind = EventClaimRolledBack
	}
	return Event{ID: s.EventID, Kind: kind, Settlement: s}
}
