package vesting

import "errors"

var (
	// ErrInvalidSchedule indicates a release schedule whose start is after its end.
	ErrInvalidSchedule = errors.New("vesting: start timestamp must not be after end timestamp")

	// ErrZeroPeriod indicates a release window shorter than one minute was
	// evaluated inside the window. This is an invariant violation: the
	// unlock fraction is undefined.
	ErrZeroPeriod = errors.New("vesting: release period shorter than one minute")

	// ErrDivisionByZero indicates a proportional split with a zero denominator.
	ErrDivisionByZero = errors.New("vesting: division by zero")
)
