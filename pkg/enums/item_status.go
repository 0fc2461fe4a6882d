package enums

import "fmt"

// ItemStatus tracks whether an inventory item can be lent out.
type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "available"
	ItemStatusCheckedOut  ItemStatus = "checked_out"
	ItemStatusMaintenance ItemStatus = "maintenance"
	ItemStatusRetired     ItemStatus = "retired"
)

var validItemStatuses = []ItemStatus{
	ItemStatusAvailable,
	ItemStatusCheckedOut,
	ItemStatusMaintenance,
	ItemStatusRetired,
}

// String implements fmt.Stringer.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemStatus.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemStatus converts raw input into an ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
