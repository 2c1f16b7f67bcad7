package settlement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/bitfsorg/libclaim-go/accounting"
	"github.com/bitfsorg/libclaim-go/amount"
	"github.com/bitfsorg/libclaim-go/ledger"
	"github.com/bitfsorg/libclaim-go/registry"
)

// Coordinator applies the claim state machine across the ledger, the
// registry and the per-token counters. It holds no state of its own; all
// four components are owned by the caller and must not be accessed
// concurrently while a call is in progress.
//
// Begin and Resolve either apply every component update or none.
type Coordinator struct {
	Ledger     *ledger.Ledger
	Registry   *registry.Registry
	Accounting *accounting.Accounting
	Book       *Book
}

// Begin reserves everything available now for (account, airdropID) and
// issues a pending handle for the transfer. The amount is counted as
// claimed before the transfer starts.
func (c *Coordinator) Begin(account string, airdropID uint16, nowMs uint64, at time.Time) (Handle, error) {
	a, err := c.Registry.Get(airdropID)
	if err != nil {
		return Handle{}, err
	}
	if !a.IsEnabled() {
		return Handle{}, fmt.Errorf("%w: %w: airdrop %d is %s", ErrAirdropNotEnabled, registry.ErrWrongStatus, airdropID, a.Status)
	}

	// Every step is checked before any is applied.
	amt, err := c.Ledger.Available(account, airdropID, a.Schedule, nowMs)
	if err != nil {
		return Handle{}, err
	}
	total, err := amount.Add(&a.TotalClaimed, amt)
	if err != nil {
		return Handle{}, err
	}
	if total.Gt(&a.TotalDistributed) {
		return Handle{}, fmt.Errorf("%w: airdrop %d claimed %s distributed %s",
			registry.ErrClaimExceedsDistribution, airdropID, total.Dec(), a.TotalDistributed.Dec())
	}
	if inClaims := c.Accounting.InClaims(a.TokenID); inClaims.Lt(amt) {
		return Handle{}, fmt.Errorf("%w: token %s in claims %s < %s",
			accounting.ErrSettleUnderflow, a.TokenID, inClaims.Dec(), amt.Dec())
	}

	if _, err := c.Ledger.Reserve(account, airdropID, a.Schedule, nowMs); err != nil {
		return Handle{}, err
	}
	if err := c.Registry.RecordClaim(airdropID, amt); err != nil {
		return Handle{}, err
	}
	if err := c.Accounting.OnSettle(a.TokenID, amt); err != nil {
		return Handle{}, err
	}

	return c.Book.open(account, airdropID, a.TokenID, amt, at), nil
}

// Resolve records the transfer outcome for handle id. Success keeps the
// reservation; failure reverses exactly the amount reserved by Begin.
//
// A handle resolves once. Resolving it again returns the recorded event
// with duplicate set and changes nothing, whatever the outcome argument.
func (c *Coordinator) Resolve(id string, outcome Outcome, reason string, at time.Time) (ev Event, duplicate bool, err error) {
	if s, ok := c.Book.resolved[id]; ok {
		return eventOf(s), true, nil
	}
	h, ok := c.Book.pending[id]
	if !ok {
		return Event{}, false, fmt.Errorf("%w: %s", ErrUnknownHandle, id)
	}

	s := Settlement{
		Handle:     h,
		Reason:     reason,
		EventID:    uuid.NewString(),
		ResolvedAt: at.UTC(),
	}
	switch outcome {
	case OutcomeSuccess:
		s.Phase = PhaseCommitted
	case OutcomeFailure:
		if err := c.rollback(h); err != nil {
			return Event{}, false, err
		}
		s.Phase = PhaseRolledBack
	default:
		return Event{}, false, fmt.Errorf("%w: %d", ErrInvalidOutcome, outcome)
	}

	c.Book.close(s)
	return eventOf(s), false, nil
}

// IsPending reports whether the entry has an unresolved transfer.
func (c *Coordinator) IsPending(account string, airdropID uint16) bool {
	return c.Book.HasPending(account, airdropID)
}

// rollback checks every inverse step before applying any of them.
func (c *Coordinator) rollback(h Handle) error {
	amt := new(uint256.Int).Set(&h.Amount)

	e, err := c.Ledger.Entry(h.Account, h.AirdropID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRollbackFailed, err)
	}
	if e.Claimed.Lt(amt) {
		return fmt.Errorf("%w: %s airdrop %d claimed %s < %s",
			ErrRollbackFailed, h.Account, h.AirdropID, e.Claimed.Dec(), amt.Dec())
	}
	a, err := c.Registry.Get(h.AirdropID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRollbackFailed, err)
	}
	if a.TotalClaimed.Lt(amt) {
		return fmt.Errorf("%w: airdrop %d total claimed %s < %s",
			ErrRollbackFailed, h.AirdropID, a.TotalClaimed.Dec(), amt.Dec())
	}
	if _, err := amount.Add(c.Accounting.InClaims(h.TokenID), amt); err != nil {
		return fmt.Errorf("%w: token %s: %w", ErrRollbackFailed, h.TokenID, err)
	}

	if err := c.Ledger.Rollback(h.Account, h.AirdropID, amt); err != nil {
		return fmt.Errorf("%w: %w", ErrRollbackFailed, err)
	}
	if err := c.Registry.RevertClaim(h.AirdropID, amt); err != nil {
		return fmt.Errorf("%w: %w", ErrRollbackFailed, err)
	}
	if err := c.Accounting.OnRevert(h.TokenID, amt); err != nil {
		return fmt.Errorf("%w: %w", ErrRollbackFailed, err)
	}
	return nil
}
