package enums

import "fmt"

// ProductSyncStatus tracks the lifecycle of a shop's catalog import.
type ProductSyncStatus string

const (
	ProductSyncStatusYetToStart ProductSyncStatus = "YET_TO_START"
	ProductSyncStatusInProgress ProductSyncStatus = "IN_PROGRESS"
	ProductSyncStatusComplete   ProductSyncStatus = "COMPLETE"
)

var validProductSyncStatuses = []ProductSyncStatus{
	ProductSyncStatusYetToStart,
	ProductSyncStatusInProgress,
	ProductSyncStatusComplete,
}

// String implements fmt.Stringer.
func (s ProductSyncStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductSyncStatus.
func (s ProductSyncStatus) IsValid() bool {
	for _, candidate := range validProductSyncStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductSyncStatus converts raw input into a ProductSyncStatus.
func ParseProductSyncStatus(value string) (ProductSyncStatus, error) {
	for _, candidate := range validProductSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product sync status %q", value)
}
