// Package ledger owns the mapping from account to its claim entries.
//
// Each account holds at most one entry per airdrop. An account with no
// entries is absent from the ledger, never an empty placeholder.
package ledger

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libclaim-go/amount"
	"github.com/bitfsorg/libclaim-go/vesting"
)

// Ledger maps account ids to their ordered claim entries.
// It is not safe for concurrent use; callers serialize access.
type Ledger struct {
	accounts map[string][]vesting.Entry
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{accounts: make(map[string][]vesting.Entry)}
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{accounts: make(map[string][]vesting.Entry, len(l.accounts))}
	for acc, entries := range l.accounts {
		c.accounts[acc] = append([]vesting.Entry(nil), entries...)
	}
	return c
}

// Len returns the number of accounts holding at least one entry.
func (l *Ledger) Len() int { return len(l.accounts) }

// Get returns a copy of the account's entries, or nil if it has none.
func (l *Ledger) Get(account string) []vesting.Entry {
	entries := l.accounts[account]
	if len(entries) == 0 {
		return nil
	}
	return append([]vesting.Entry(nil), entries...)
}

// GetOrFail is Get but returns ErrNoClaims for an absent account.
func (l *Ledger) GetOrFail(account string) ([]vesting.Entry, error) {
	entries := l.Get(account)
	if entries == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoClaims, account)
	}
	return entries, nil
}

// Create appends a fresh entry for (account, airdropID).
func (l *Ledger) Create(account string, airdropID uint16, assigned *uint256.Int) error {
	if account == "" {
		return ErrEmptyAccount
	}
	if !amount.Fits(assigned) {
		return fmt.Errorf("%w: assigned %s", amount.ErrOverflow, assigned.Dec())
	}
	entries := l.accounts[account]
	for i := range entries {
		if entries[i].AirdropID == airdropID {
			return fmt.Errorf("%w: %s already has a claim for airdrop %d", ErrDuplicateClaim, account, airdropID)
		}
	}
	l.accounts[account] = append(entries, vesting.NewEntry(airdropID, assigned))
	return nil
}

// Available returns what (account, airdropID) could reserve now without
// changing anything. It fails with ErrNothingAvailable when that is zero.
func (l *Ledger) Available(account string, airdropID uint16, s vesting.Schedule, nowMs uint64) (*uint256.Int, error) {
	e, err := l.find(account, airdropID)
	if err != nil {
		return nil, err
	}
	return available(e, s, nowMs)
}

// Reserve computes the amount available now for (account, airdropID) and
// adds it to the entry's claimed tokens before any transfer happens. A
// second reservation on the same entry sees the increased claimed amount.
func (l *Ledger) Reserve(account string, airdropID uint16, s vesting.Schedule, nowMs uint64) (*uint256.Int, error) {
	e, err := l.find(account, airdropID)
	if err != nil {
		return nil, err
	}
	avail, err := available(e, s, nowMs)
	if err != nil {
		return nil, err
	}
	claimed, err := amount.Add(&e.Claimed, avail)
	if err != nil {
		return nil, err
	}
	e.Claimed = *claimed
	return avail, nil
}

func available(e *vesting.Entry, s vesting.Schedule, nowMs uint64) (*uint256.Int, error) {
	avail, err := vesting.AvailableNow(e, s, nowMs)
	if err != nil {
		return nil, err
	}
	if avail.IsZero() {
		return nil, fmt.Errorf("%w: assigned %s claimed %s",
			ErrNothingAvailable, e.Assigned.Dec(), e.Claimed.Dec())
	}
	return avail, nil
}

// Entry returns a copy of the entry for (account, airdropID).
func (l *Ledger) Entry(account string, airdropID uint16) (vesting.Entry, error) {
	e, err := l.find(account, airdropID)
	if err != nil {
		return vesting.Entry{}, err
	}
	return *e, nil
}

// Rollback undoes a prior Reserve of amt.
func (l *Ledger) Rollback(account string, airdropID uint16, amt *uint256.Int) error {
	e, err := l.find(account, airdropID)
	if err != nil {
		return err
	}
	claimed, err := amount.Sub(&e.Claimed, amt)
	if err != nil {
		return fmt.Errorf("%w: %s airdrop %d: %w", ErrRollbackUnderflow, account, airdropID, err)
	}
	e.Claimed = *claimed
	return nil
}

// Prune drops fully claimed entries of the given accounts and removes
// accounts left with no entries. Entries for which keep returns true are
// retained even when fully claimed. Returns the number of entries removed.
func (l *Ledger) Prune(accounts []string, keep func(account string, airdropID uint16) bool) int {
	removed := 0
	for _, acc := range accounts {
		entries, ok := l.accounts[acc]
		if !ok {
			continue
		}
		live := entries[:0:0]
		for _, e := range entries {
			if e.FullyClaimed() && (keep == nil || !keep(acc, e.AirdropID)) {
				removed++
				continue
			}
			live = append(live, e)
		}
		if len(live) == 0 {
			delete(l.accounts, acc)
		} else {
			l.accounts[acc] = live
		}
	}
	return removed
}

// Accounts returns all account ids in ascending order.
func (l *Ledger) Accounts() []string {
	ids := make([]string, 0, len(l.accounts))
	for acc := range l.accounts {
		ids = append(ids, acc)
	}
	sort.Strings(ids)
	return ids
}

// Page returns up to limit account ids starting at index from, in
// ascending order.
func (l *Ledger) Page(from, limit int) []string {
	ids := l.Accounts()
	if from < 0 || from >= len(ids) || limit <= 0 {
		return nil
	}
	end := from + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[from:end]
}

// Range calls fn for every account in ascending order until fn returns false.
// The entries slice is a copy.
func (l *Ledger) Range(fn func(account string, entries []vesting.Entry) bool) {
	for _, acc := range l.Accounts() {
		if !fn(acc, l.Get(acc)) {
			return
		}
	}
}

// Put replaces an account's entries wholesale. Used when restoring
// persisted state; an empty slice removes the account.
func (l *Ledger) Put(account string, entries []vesting.Entry) {
	if len(entries) == 0 {
		delete(l.accounts, account)
		return
	}
	l.accounts[account] = append([]vesting.Entry(nil), entries...)
}

func (l *Ledger) find(account string, airdropID uint16) (*vesting.Entry, error) {
	entries, ok := l.accounts[account]
	if !ok || len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoClaims, account)
	}
	for i := range entries {
		if entries[i].AirdropID == airdropID {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no claim for airdrop %d", ErrNoClaimForAirdrop, account, airdropID)
}
