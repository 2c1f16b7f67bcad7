package registry

import "fmt"

// Status is the lifecycle state of an airdrop.
type Status uint8

const (
	// StatusDisabled accepts new claim entries; no transfers.
	StatusDisabled Status = 0
	// StatusEnabled serves claims.
	StatusEnabled Status = 1
	// StatusArchived hides the airdrop from normal listings.
	StatusArchived Status = 2
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusEnabled:
		return "enabled"
	case StatusArchived:
		return "archived"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s <= StatusArchived
}

// ParseStatus converts a status name to a Status.
func ParseStatus(name string) (Status, error) {
	switch name {
	case "disabled":
		return StatusDisabled, nil
	case "enabled":
		return StatusEnabled, nil
	case "archived":
		return StatusArchived, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, name)
}
