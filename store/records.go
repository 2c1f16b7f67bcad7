package store

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libclaim-go/amount"
	"github.com/bitfsorg/libclaim-go/registry"
	"github.com/bitfsorg/libclaim-go/settlement"
	"github.com/bitfsorg/libclaim-go/vesting"
)

// Persisted records carry amounts as base-unit decimal strings.

type airdropRecord struct {
	Status           uint8
	Title            string
	TokenID          string
	TokenSymbol      string
	TokenDecimals    uint8
	StartMs          uint64
	EndMs            uint64
	TotalDistributed string
	TotalClaimed     string
}

type entryRecord struct {
	AirdropID uint16
	Assigned  string
	Claimed   string
}

type handleRecord struct {
	ID        string
	Account   string
	AirdropID uint16
	TokenID   string
	Amount    string
	CreatedAt time.Time
}

type settlementRecord struct {
	Handle     handleRecord
	Phase      string
	Reason     string
	EventID    string
	ResolvedAt time.Time
}

func toAirdropRecord(a *registry.Airdrop) airdropRecord {
	return airdropRecord{
		Status:           uint8(a.Status),
		Title:            a.Title,
		TokenID:          a.TokenID,
		TokenSymbol:      a.TokenSymbol,
		TokenDecimals:    a.TokenDecimals,
		StartMs:          a.Schedule.StartMs,
		EndMs:            a.Schedule.EndMs,
		TotalDistributed: a.TotalDistributed.Dec(),
		TotalClaimed:     a.TotalClaimed.Dec(),
	}
}

func (r airdropRecord) airdrop() (registry.Airdrop, error) {
	st := registry.Status(r.Status)
	if !st.Valid() {
		return registry.Airdrop{}, fmt.Errorf("%w: airdrop status %d", ErrCorrupt, r.Status)
	}
	a := registry.Airdrop{
		Status:        st,
		Title:         r.Title,
		TokenID:       r.TokenID,
		TokenSymbol:   r.TokenSymbol,
		TokenDecimals: r.TokenDecimals,
		Schedule:      vesting.Schedule{StartMs: r.StartMs, EndMs: r.EndMs},
	}
	if err := decodeAmount(r.TotalDistributed, &a.TotalDistributed); err != nil {
		return registry.Airdrop{}, err
	}
	if err := decodeAmount(r.TotalClaimed, &a.TotalClaimed); err != nil {
		return registry.Airdrop{}, err
	}
	return a, nil
}

func toEntryRecords(entries []vesting.Entry) []entryRecord {
	out := make([]entryRecord, len(entries))
	for i := range entries {
		out[i] = entryRecord{
			AirdropID: entries[i].AirdropID,
			Assigned:  entries[i].Assigned.Dec(),
			Claimed:   entries[i].Claimed.Dec(),
		}
	}
	return out
}

func entriesOf(recs []entryRecord) ([]vesting.Entry, error) {
	out := make([]vesting.Entry, len(recs))
	for i, r := range recs {
		out[i].AirdropID = r.AirdropID
		if err := decodeAmount(r.Assigned, &out[i].Assigned); err != nil {
			return nil, err
		}
		if err := decodeAmount(r.Claimed, &out[i].Claimed); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func toHandleRecord(h *settlement.Handle) handleRecord {
	return handleRecord{
		ID:        h.ID,
		Account:   h.Account,
		AirdropID: h.AirdropID,
		TokenID:   h.TokenID,
		Amount:    h.Amount.Dec(),
		CreatedAt: h.CreatedAt,
	}
}

func (r handleRecord) handle() (settlement.Handle, error) {
	h := settlement.Handle{
		ID:        r.ID,
		Account:   r.Account,
		AirdropID: r.AirdropID,
		TokenID:   r.TokenID,
		CreatedAt: r.CreatedAt,
	}
	if err := decodeAmount(r.Amount, &h.Amount); err != nil {
		return settlement.Handle{}, err
	}
	return h, nil
}

func toSettlementRecord(s *settlement.Settlement) settlementRecord {
	return settlementRecord{
		Handle:     toHandleRecord(&s.Handle),
		Phase:      string(s.Phase),
		Reason:     s.Reason,
		EventID:    s.EventID,
		ResolvedAt: s.ResolvedAt,
	}
}

func (r settlementRecord) settlement() (settlement.Settlement, error) {
	h, err := r.Handle.handle()
	if err != nil {
		return settlement.Settlement{}, err
	}
	phase := settlement.Phase(r.Phase)
	if phase != settlement.PhaseCommitted && phase != settlement.PhaseRolledBack {
		return settlement.Settlement{}, fmt.Errorf("%w: settlement %s phase %q", ErrCorrupt, r.Handle.ID, r.Phase)
	}
	return settlement.Settlement{
		Handle:     h,
		Phase:      phase,
		Reason:     r.Reason,
		EventID:    r.EventID,
		ResolvedAt: r.ResolvedAt,
	}, nil
}

func decodeAmount(s string, dst *uint256.Int) error {
	v, err := amount.FromString(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	dst.Set(v)
	return nil
}
