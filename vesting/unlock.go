package vesting

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libclaim-go/amount"
)

// Unlocked returns how much of assigned has unlocked at nowMs.
//
//   - nowMs < StartMs: nothing.
//   - nowMs > EndMs: everything.
//   - otherwise assigned * elapsedMinutes / periodMinutes.
//
// A window shorter than one minute evaluated inside the window returns
// ErrZeroPeriod.
func Unlocked(assigned *uint256.Int, s Schedule, nowMs uint64) (*uint256.Int, error) {
	switch {
	case nowMs < s.StartMs:
		return new(uint256.Int), nil
	case nowMs > s.EndMs:
		return new(uint256.Int).Set(assigned), nil
	}

	period := s.PeriodMinutes()
	if period == 0 {
		return nil, fmt.Errorf("%w: start %d end %d now %d", ErrZeroPeriod, s.StartMs, s.EndMs, nowMs)
	}
	elapsed := (nowMs - s.StartMs) / MillisPerMinute
	return Proportional(assigned, uint256.NewInt(elapsed), uint256.NewInt(period))
}

// AvailableNow returns the amount of e that can be claimed at nowMs: the
// unlocked amount minus what was already claimed, never negative.
func AvailableNow(e *Entry, s Schedule, nowMs uint64) (*uint256.Int, error) {
	unlocked, err := Unlocked(&e.Assigned, s, nowMs)
	if err != nil {
		return nil, err
	}
	return amount.SaturatingSub(unlocked, &e.Claimed), nil
}

// Proportional returns amount * num / den using a 512-bit intermediate
// product. The result must fit in 128 bits.
func Proportional(amt, num, den *uint256.Int) (*uint256.Int, error) {
	if den.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(amt, num, den)
	if overflow || !amount.Fits(z) {
		return nil, fmt.Errorf("%w: %s * %s / %s", amount.ErrOverflow, amt.Dec(), num.Dec(), den.Dec())
	}
	return z, nil
}
