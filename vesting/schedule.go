// Package vesting computes how much of a claim entry is unlocked under a
// linear release schedule.
//
// Unlocking is discretized to whole minutes: extra tokens become available
// on each minute mark between the schedule start and end.
package vesting

import (
	"fmt"

	"github.com/holiman/uint256"
)

// MillisPerMinute is the unlock tick.
const MillisPerMinute uint64 = 60_000

// Schedule is the [StartMs, EndMs] window over which an entry unlocks.
// Timestamps are Unix milliseconds.
type Schedule struct {
	StartMs uint64
	EndMs   uint64
}

// NewSchedule returns a validated schedule.
func NewSchedule(startMs, endMs uint64) (Schedule, error) {
	s := Schedule{StartMs: startMs, EndMs: endMs}
	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// Validate checks StartMs <= EndMs.
func (s Schedule) Validate() error {
	if s.StartMs > s.EndMs {
		return fmt.Errorf("%w: start %d > end %d", ErrInvalidSchedule, s.StartMs, s.EndMs)
	}
	return nil
}

// PeriodMinutes is the schedule length in whole minutes (floor).
func (s Schedule) PeriodMinutes() uint64 {
	return (s.EndMs - s.StartMs) / MillisPerMinute
}

// Entry is a single account's balances within one airdrop.
type Entry struct {
	AirdropID uint16
	Assigned  uint256.Int
	Claimed   uint256.Int
}

// NewEntry returns an entry with nothing claimed yet.
func NewEntry(airdropID uint16, assigned *uint256.Int) Entry {
	return Entry{AirdropID: airdropID, Assigned: *assigned}
}

// IsActive reports whether the entry still has unclaimed tokens.
func (e *Entry) IsActive() bool {
	return !e.Assigned.IsZero() && e.Claimed.Lt(&e.Assigned)
}

// FullyClaimed reports whether every assigned token has been claimed.
func (e *Entry) FullyClaimed() bool {
	return e.Assigned.Eq(&e.Claimed)
}

// Remaining returns Assigned - Claimed.
func (e *Entry) Remaining() *uint256.Int {
	return new(uint256.Int).Sub(&e.Assigned, &e.Claimed)
}
