package contract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bitfsorg/libclaim-go/settlement"
	"github.com/bitfsorg/libclaim-go/store"
	"github.com/bitfsorg/libclaim-go/token"
)

// Pending is the result of a claim whose transfer is in flight.
//
// Done delivers the settlement event once the transfer outcome has been
// recorded. It is closed without a value when the outcome is unknown
// (transport failure, timeout, shutdown); the handle then stays pending
// until ResolveClaim is called.
type Pending struct {
	Handle settlement.Handle
	Done   <-chan settlement.Event
}

// Claim reserves everything caller can claim now from the airdrop and
// starts the token transfer. The reservation is persisted before the
// transfer is attempted.
func (c *Contract) Claim(caller string, airdropID uint16) (*Pending, error) {
	if caller == "" {
		return nil, fmt.Errorf("%w: caller", ErrInvalidAccount)
	}
	now := c.now()
	done := make(chan settlement.Event, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	var (
		h             settlement.Handle
		title, symbol string
	)
	err := c.commitLocked(func(st *store.State) error {
		a, err := st.Registry.Get(airdropID)
		if err != nil {
			return err
		}
		title, symbol = a.Title, a.TokenSymbol
		h, err = st.Coordinator().Begin(caller, airdropID, uint64(now.UnixMilli()), now)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("claim reserved",
		zap.String("account", caller),
		zap.Uint16("airdrop_id", airdropID),
		zap.String("token", h.TokenID),
		zap.String("amount", h.Amount.Dec()),
		zap.String("handle", h.ID))

	c.dispatching[h.ID] = struct{}{}
	c.inflight.Add(1)
	go c.dispatch(h, title, symbol, done)

	return &Pending{Handle: h, Done: done}, nil
}

// dispatch performs the transfer for h and records its outcome.
func (c *Contract) dispatch(h settlement.Handle, memo, symbol string, done chan<- settlement.Event) {
	defer c.inflight.Done()
	defer close(done)

	ctx, cancel := context.WithTimeout(c.ctx, c.transferTimeout)
	defer cancel()

	amt := h.Amount
	err := c.tokens.Transfer(ctx, h.TokenID, h.Account, &amt, memo)

	var outcome settlement.Outcome
	reason := ""
	switch {
	case err == nil:
		outcome = settlement.OutcomeSuccess
	case errors.Is(err, token.ErrTransferRejected):
		outcome = settlement.OutcomeFailure
		reason = err.Error()
	default:
		c.mu.Lock()
		delete(c.dispatching, h.ID)
		c.mu.Unlock()
		c.log.Warn("transfer outcome unknown, settlement left pending",
			zap.String("handle", h.ID),
			zap.String("account", h.Account),
			zap.Uint16("airdrop_id", h.AirdropID),
			zap.String("amount", h.Amount.Dec()),
			zap.Error(err))
		return
	}

	c.mu.Lock()
	ev, dup, err := c.resolveLocked(h.ID, outcome, reason)
	delete(c.dispatching, h.ID)
	c.mu.Unlock()
	if err != nil {
		c.log.Error("recording transfer outcome failed",
			zap.String("handle", h.ID),
			zap.Stringer("outcome", outcome),
			zap.Error(err))
		return
	}
	switch {
	case !dup:
		c.logSettlement(ev, symbol)
	case ev.Phase != phaseOf(outcome):
		c.log.Error("transfer outcome contradicts recorded settlement",
			zap.String("handle", h.ID),
			zap.String("account", h.Account),
			zap.String("amount", h.Amount.Dec()),
			zap.Stringer("outcome", outcome),
			zap.String("recorded", string(ev.Phase)))
	}
	done <- ev
}

func phaseOf(o settlement.Outcome) settlement.Phase {
	if o == settlement.OutcomeSuccess {
		return settlement.PhaseCommitted
	}
	return settlement.PhaseRolledBack
}

// ResolveClaim records the transfer outcome for a pending settlement by
// hand, for transfers whose result was never reported. Operator only.
// Settlements whose transfer is still running are refused with
// ErrSettlementInFlight.
// Resolving an already resolved settlement returns its recorded event with
// duplicate set.
func (c *Contract) ResolveClaim(caller, id string, outcome settlement.Outcome, reason string) (ev settlement.Event, duplicate bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return settlement.Event{}, false, ErrClosed
	}
	if err := requireOperator(c.state, caller); err != nil {
		return settlement.Event{}, false, err
	}
	if _, ok := c.dispatching[id]; ok {
		return settlement.Event{}, false, fmt.Errorf("%w: %s", ErrSettlementInFlight, id)
	}
	ev, duplicate, err = c.resolveLocked(id, outcome, reason)
	if err != nil {
		return settlement.Event{}, false, err
	}
	if !duplicate {
		symbol := ""
		if a, err := c.state.Registry.Get(ev.AirdropID); err == nil {
			symbol = a.TokenSymbol
		}
		c.logSettlement(ev, symbol)
	}
	return ev, duplicate, nil
}

func (c *Contract) resolveLocked(id string, outcome settlement.Outcome, reason string) (settlement.Event, bool, error) {
	var (
		ev  settlement.Event
		dup bool
	)
	at := c.now()
	err := c.commitLocked(func(st *store.State) error {
		var err error
		ev, dup, err = st.Coordinator().Resolve(id, outcome, reason, at)
		return err
	})
	if errors.Is(err, settlement.ErrUnknownHandle) {
		return settlement.Event{}, false, fmt.Errorf("%w: %w", ErrUnknownSettlement, err)
	}
	return ev, dup, err
}

func (c *Contract) logSettlement(ev settlement.Event, symbol string) {
	switch ev.Phase {
	case settlement.PhaseCommitted:
		c.log.Info(fmt.Sprintf("%s claimed %s %s", ev.Account, ev.Amount.Dec(), symbol),
			zap.String("event", ev.ID),
			zap.String("handle", ev.Handle.ID),
			zap.Uint16("airdrop_id", ev.AirdropID))
	case settlement.PhaseRolledBack:
		c.log.Warn("claim transfer failed",
			zap.String("event", ev.ID),
			zap.String("handle", ev.Handle.ID),
			zap.String("account", ev.Account),
			zap.Uint16("airdrop_id", ev.AirdropID),
			zap.String("amount", ev.Amount.Dec()),
			zap.String("symbol", symbol),
			zap.String("reason", ev.Reason))
	}
}

// RemoveUsedClaims drops fully claimed entries of the given accounts and
// removes accounts left without entries. Entries with an unresolved
// transfer are kept. Open to any caller. Returns the number of entries
// removed.
func (c *Contract) RemoveUsedClaims(accounts []string) (int, error) {
	var removed int
	err := c.update(func(st *store.State) error {
		coord := st.Coordinator()
		removed = st.Ledger.Prune(accounts, coord.IsPending)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		c.log.Info("used claims removed", zap.Int("accounts", len(accounts)), zap.Int("entries", removed))
	}
	return removed, nil
}
