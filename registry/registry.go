// Package registry owns the list of airdrop definitions.
//
// Airdrop ids are list positions: assigned in registration order and never
// reused. The registry guards its own totals and the no-op status change;
// status ordering rules (claims only while disabled, transfers only while
// enabled) belong to callers.
package registry

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libclaim-go/amount"
	"github.com/bitfsorg/libclaim-go/vesting"
)

// Airdrop is one distribution program for a single token.
type Airdrop struct {
	Status           Status
	Title            string
	TokenID          string
	TokenSymbol      string
	TokenDecimals    uint8
	Schedule         vesting.Schedule
	TotalDistributed uint256.Int
	TotalClaimed     uint256.Int
}

// IsEnabled reports whether the airdrop serves claims.
func (a *Airdrop) IsEnabled() bool { return a.Status == StatusEnabled }

// Registry is the ordered airdrop list. Not safe for concurrent use.
type Registry struct {
	airdrops []Airdrop
}

// New creates an empty registry.
func New() *Registry { return &Registry{} }

// Clone returns a deep copy.
func (r *Registry) Clone() *Registry {
	return &Registry{airdrops: append([]Airdrop(nil), r.airdrops...)}
}

// Len returns the number of registered airdrops.
func (r *Registry) Len() int { return len(r.airdrops) }

// Get returns a copy of the airdrop with the given id.
func (r *Registry) Get(id uint16) (Airdrop, error) {
	a, err := r.at(id)
	if err != nil {
		return Airdrop{}, err
	}
	return *a, nil
}

// All returns a copy of every airdrop, indexed by id.
func (r *Registry) All() []Airdrop {
	return append([]Airdrop(nil), r.airdrops...)
}

// Register appends a disabled airdrop and returns its id.
func (r *Registry) Register(title, tokenID, symbol string, decimals uint8, s vesting.Schedule) (uint16, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	if len(r.airdrops) > math.MaxUint16 {
		return 0, ErrRegistryFull
	}
	r.airdrops = append(r.airdrops, Airdrop{
		Status:        StatusDisabled,
		Title:         title,
		TokenID:       tokenID,
		TokenSymbol:   symbol,
		TokenDecimals: decimals,
		Schedule:      s,
	})
	return uint16(len(r.airdrops) - 1), nil
}

// ChangeStatus replaces the status. Only setting the current status again
// is rejected; any other transition, including leaving Archived, is allowed.
func (r *Registry) ChangeStatus(id uint16, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}
	a, err := r.at(id)
	if err != nil {
		return err
	}
	if a.Status == status {
		return fmt.Errorf("%w: airdrop %d is already %s", ErrNoOpStatusChange, id, status)
	}
	a.Status = status
	return nil
}

// ChangeSchedule rewrites the release schedule regardless of status.
func (r *Registry) ChangeSchedule(id uint16, s vesting.Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	a, err := r.at(id)
	if err != nil {
		return err
	}
	a.Schedule = s
	return nil
}

// RecordDistribution adds amt to the total distributed.
func (r *Registry) RecordDistribution(id uint16, amt *uint256.Int) error {
	a, err := r.at(id)
	if err != nil {
		return err
	}
	total, err := amount.Add(&a.TotalDistributed, amt)
	if err != nil {
		return err
	}
	a.TotalDistributed = *total
	return nil
}

// RecordClaim adds amt to the total claimed.
func (r *Registry) RecordClaim(id uint16, amt *uint256.Int) error {
	a, err := r.at(id)
	if err != nil {
		return err
	}
	total, err := amount.Add(&a.TotalClaimed, amt)
	if err != nil {
		return err
	}
	if total.Gt(&a.TotalDistributed) {
		return fmt.Errorf("%w: airdrop %d claimed %s distributed %s",
			ErrClaimExceedsDistribution, id, total.Dec(), a.TotalDistributed.Dec())
	}
	a.TotalClaimed = *total
	return nil
}

// RevertClaim subtracts amt from the total claimed.
func (r *Registry) RevertClaim(id uint16, amt *uint256.Int) error {
	a, err := r.at(id)
	if err != nil {
		return err
	}
	total, err := amount.Sub(&a.TotalClaimed, amt)
	if err != nil {
		return fmt.Errorf("%w: airdrop %d: %w", ErrRevertUnderflow, id, err)
	}
	a.TotalClaimed = *total
	return nil
}

// Restore appends a persisted airdrop verbatim. Used when loading state.
func (r *Registry) Restore(a Airdrop) {
	r.airdrops = append(r.airdrops, a)
}

func (r *Registry) at(id uint16) (*Airdrop, error) {
	if int(id) >= len(r.airdrops) {
		return nil, fmt.Errorf("%w: index %d", ErrAirdropNotFound, id)
	}
	return &r.airdrops[id], nil
}
