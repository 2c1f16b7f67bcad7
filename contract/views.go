package contract

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libclaim-go/registry"
	"github.com/bitfsorg/libclaim-go/settlement"
	"github.com/bitfsorg/libclaim-go/store"
	"github.com/bitfsorg/libclaim-go/vesting"
)

// Amounts in views are base-unit decimal strings.

// InfoView summarizes the contract.
type InfoView struct {
	OwnerID      string `json:"owner_id"`
	OperatorID   string `json:"operator_id"`
	AirdropCount int    `json:"airdrop_count"`
	UserCount    int    `json:"user_count"`
}

// AirdropView is the public shape of an airdrop.
type AirdropView struct {
	AirdropIndex     uint16 `json:"airdrop_index"`
	Status           string `json:"status"`
	Enabled          bool   `json:"enabled"`
	Title            string `json:"title"`
	TokenContract    string `json:"token_contract"`
	TokenSymbol      string `json:"token_symbol"`
	TokenDecimals    uint8  `json:"token_decimals"`
	ReleaseStartMs   uint64 `json:"release_schedule_start_ms"`
	ReleaseEndMs     uint64 `json:"release_schedule_end_ms"`
	TotalDistributed string `json:"total_distributed"`
	TotalClaimed     string `json:"total_claimed"`
}

// ClaimView is one of an account's claims.
type ClaimView struct {
	IsActive           bool   `json:"is_active"`
	AirdropIndex       uint16 `json:"airdrop_index"`
	AirdropTitle       string `json:"airdrop_title"`
	TokenContract      string `json:"token_contract"`
	TokenSymbol        string `json:"token_symbol"`
	TokenDecimals      uint8  `json:"token_decimals"`
	AssignedTokens     string `json:"assigned_tokens"`
	ClaimedTokens      string `json:"claimed_tokens"`
	AvailableTokensNow string `json:"available_tokens_now"`
	ReleaseStartMs     uint64 `json:"release_start_ms"`
	ReleaseEndMs       uint64 `json:"release_end_ms"`
}

// UserClaims lists an account's claims.
type UserClaims struct {
	AccountID string      `json:"account_id"`
	Claims    []ClaimView `json:"claims"`
}

// SettlementView is the public shape of a settlement handle.
type SettlementView struct {
	ID           string     `json:"id"`
	Phase        string     `json:"phase"`
	AccountID    string     `json:"account_id"`
	AirdropIndex uint16     `json:"airdrop_index"`
	Token        string     `json:"token_contract"`
	Amount       string     `json:"amount"`
	CreatedAt    time.Time  `json:"created_at"`
	EventID      string     `json:"event_id,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// EventView is the public shape of a settlement event.
type EventView struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Settlement SettlementView `json:"settlement"`
}

// NewEventView renders a settlement event.
func NewEventView(ev settlement.Event) EventView {
	return EventView{ID: ev.ID, Kind: string(ev.Kind), Settlement: NewSettlementView(ev.Settlement)}
}

// Info returns the contract summary.
func (c *Contract) Info() InfoView {
	var v InfoView
	c.read(func(st *store.State) {
		v = InfoView{
			OwnerID:      st.Owner,
			OperatorID:   st.Operator,
			AirdropCount: st.Registry.Len(),
			UserCount:    st.Ledger.Len(),
		}
	})
	return v
}

// Airdrops lists enabled airdrops, or all of them with includeNotEnabled.
func (c *Contract) Airdrops(includeNotEnabled bool) []AirdropView {
	out := []AirdropView{}
	c.read(func(st *store.State) {
		for id, a := range st.Registry.All() {
			if includeNotEnabled || a.IsEnabled() {
				out = append(out, airdropView(uint16(id), &a))
			}
		}
	})
	return out
}

// Airdrop returns a single airdrop in any status.
func (c *Contract) Airdrop(id uint16) (AirdropView, error) {
	var (
		v   AirdropView
		err error
	)
	c.read(func(st *store.State) {
		var a registry.Airdrop
		if a, err = st.Registry.Get(id); err == nil {
			v = airdropView(id, &a)
		}
	})
	return v, err
}

// UserClaims lists the account's active claims on enabled airdrops, adding
// fully claimed ones with includeInactive. An unknown account has no claims.
func (c *Contract) UserClaims(account string, includeInactive bool) (UserClaims, error) {
	var (
		v   UserClaims
		err error
	)
	nowMs := c.nowMs()
	c.read(func(st *store.State) {
		v.AccountID = account
		v.Claims, err = claimViews(st, st.Ledger.Get(account), includeInactive, nowMs)
	})
	return v, err
}

// Users pages through every account holding claims, in account order,
// including inactive claims.
func (c *Contract) Users(from, limit int) ([]UserClaims, error) {
	out := []UserClaims{}
	var err error
	nowMs := c.nowMs()
	c.read(func(st *store.State) {
		for _, acc := range st.Ledger.Page(from, limit) {
			var claims []ClaimView
			if claims, err = claimViews(st, st.Ledger.Get(acc), true, nowMs); err != nil {
				return
			}
			out = append(out, UserClaims{AccountID: acc, Claims: claims})
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TotalInClaims returns the token's unclaimed total across all airdrops.
func (c *Contract) TotalInClaims(tokenID string) *uint256.Int {
	var v *uint256.Int
	c.read(func(st *store.State) { v = st.Accounting.InClaims(tokenID) })
	return v
}

// PendingSettlements lists unresolved transfers, oldest first.
func (c *Contract) PendingSettlements() []SettlementView {
	out := []SettlementView{}
	c.read(func(st *store.State) {
		for _, h := range st.Book.Pending() {
			out = append(out, NewSettlementView(settlement.Settlement{Handle: h, Phase: settlement.PhaseTransferPending}))
		}
	})
	return out
}

// Settlement returns the state of one settlement handle.
func (c *Contract) Settlement(id string) (SettlementView, error) {
	var (
		s  settlement.Settlement
		ok bool
	)
	c.read(func(st *store.State) { s, ok = st.Book.Lookup(id) })
	if !ok {
		return SettlementView{}, fmt.Errorf("%w: %s", ErrUnknownSettlement, id)
	}
	return NewSettlementView(s), nil
}

func airdropView(id uint16, a *registry.Airdrop) AirdropView {
	return AirdropView{
		AirdropIndex:     id,
		Status:           a.Status.String(),
		Enabled:          a.IsEnabled(),
		Title:            a.Title,
		TokenContract:    a.TokenID,
		TokenSymbol:      a.TokenSymbol,
		TokenDecimals:    a.TokenDecimals,
		ReleaseStartMs:   a.Schedule.StartMs,
		ReleaseEndMs:     a.Schedule.EndMs,
		TotalDistributed: a.TotalDistributed.Dec(),
		TotalClaimed:     a.TotalClaimed.Dec(),
	}
}

func claimViews(st *store.State, entries []vesting.Entry, includeInactive bool, nowMs uint64) ([]ClaimView, error) {
	out := []ClaimView{}
	for i := range entries {
		e := &entries[i]
		a, err := st.Registry.Get(e.AirdropID)
		if err != nil {
			return nil, err
		}
		if !a.IsEnabled() || !(includeInactive || e.IsActive()) {
			continue
		}
		avail, err := vesting.AvailableNow(e, a.Schedule, nowMs)
		if err != nil {
			return nil, fmt.Errorf("airdrop %d: %w", e.AirdropID, err)
		}
		out = append(out, ClaimView{
			IsActive:           e.IsActive(),
			AirdropIndex:       e.AirdropID,
			AirdropTitle:       a.Title,
			TokenContract:      a.TokenID,
			TokenSymbol:        a.TokenSymbol,
			TokenDecimals:      a.TokenDecimals,
			AssignedTokens:     e.Assigned.Dec(),
			ClaimedTokens:      e.Claimed.Dec(),
			AvailableTokensNow: avail.Dec(),
			ReleaseStartMs:     a.Schedule.StartMs,
			ReleaseEndMs:       a.Schedule.EndMs,
		})
	}
	return out, nil
}

// NewSettlementView renders a settlement record.
func NewSettlementView(s settlement.Settlement) SettlementView {
	v := SettlementView{
		ID:           s.ID,
		Phase:        string(s.Phase),
		AccountID:    s.Account,
		AirdropIndex: s.AirdropID,
		Token:        s.TokenID,
		Amount:       s.Amount.Dec(),
		CreatedAt:    s.CreatedAt,
		EventID:      s.EventID,
		Reason:       s.Reason,
	}
	if !s.ResolvedAt.IsZero() {
		at := s.ResolvedAt
		v.ResolvedAt = &at
	}
	return v
}
