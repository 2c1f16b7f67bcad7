// Package accounting keeps one running counter per token: the amount
// assigned to accounts but not yet claimed, across every airdrop of that
// token.
package accounting

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libclaim-go/amount"
)

// Accounting holds the per-token "in claims" counters.
type Accounting struct {
	inClaims map[string]uint256.Int
}

// New creates empty counters.
func New() *Accounting {
	return &Accounting{inClaims: make(map[string]uint256.Int)}
}

// Clone returns a deep copy.
func (a *Accounting) Clone() *Accounting {
	c := &Accounting{inClaims: make(map[string]uint256.Int, len(a.inClaims))}
	for token, v := range a.inClaims {
		c.inClaims[token] = v
	}
	return c
}

// InClaims returns the counter for token (zero if never touched).
func (a *Accounting) InClaims(token string) *uint256.Int {
	v := a.inClaims[token]
	return &v
}

// Tokens returns every token with a counter, sorted.
func (a *Accounting) Tokens() []string {
	tokens := make([]string, 0, len(a.inClaims))
	for token := range a.inClaims {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// OnDistribute adds newly assigned tokens.
func (a *Accounting) OnDistribute(token string, amt *uint256.Int) error {
	return a.add(token, amt)
}

// OnSettle removes reserved tokens from the counter.
func (a *Accounting) OnSettle(token string, amt *uint256.Int) error {
	if token == "" {
		return ErrEmptyToken
	}
	cur := a.inClaims[token]
	next, err := amount.Sub(&cur, amt)
	if err != nil {
		return fmt.Errorf("%w: token %s: %w", ErrSettleUnderflow, token, err)
	}
	a.inClaims[token] = *next
	return nil
}

// OnRevert is the inverse of OnSettle.
func (a *Accounting) OnRevert(token string, amt *uint256.Int) error {
	return a.add(token, amt)
}

// CheckFunding verifies that externalBalance backs everything in claims
// for token. It fails when nothing is in claims, or the balance is short.
func (a *Accounting) CheckFunding(token string, externalBalance *uint256.Int) error {
	total := a.inClaims[token]
	if total.IsZero() {
		return fmt.Errorf("%w: for token %s, total_in_claims is 0", ErrNotFunded, token)
	}
	if externalBalance.Lt(&total) {
		return fmt.Errorf("%w: for token %s balance %s < total_in_claims %s",
			ErrNotFunded, token, externalBalance.Dec(), total.Dec())
	}
	return nil
}

// Set overwrites a counter. Used when restoring persisted state.
func (a *Accounting) Set(token string, v *uint256.Int) {
	a.inClaims[token] = *v
}

func (a *Accounting) add(token string, amt *uint256.Int) error {
	if token == "" {
		return ErrEmptyToken
	}
	cur := a.inClaims[token]
	next, err := amount.Add(&cur, amt)
	if err != nil {
		return fmt.Errorf("token %s: %w", token, err)
	}
	a.inClaims[token] = *next
	return nil
}
