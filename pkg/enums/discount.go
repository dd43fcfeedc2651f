package enums

import "fmt"

// DiscountType selects how a discount group's value is interpreted.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercentage,
	DiscountTypeFixed,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}

// DiscountGroupStatus tracks whether a group currently applies discounts.
type DiscountGroupStatus string

const (
	DiscountGroupStatusActive DiscountGroupStatus = "ACTIVE"
	DiscountGroupStatusDraft  DiscountGroupStatus = "DRAFT"
)

var validDiscountGroupStatuses = []DiscountGroupStatus{
	DiscountGroupStatusActive,
	DiscountGroupStatusDraft,
}

// String implements fmt.Stringer.
func (s DiscountGroupStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DiscountGroupStatus.
func (s DiscountGroupStatus) IsValid() bool {
	for _, candidate := range validDiscountGroupStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDiscountGroupStatus converts raw input into a DiscountGroupStatus.
func ParseDiscountGroupStatus(value string) (DiscountGroupStatus, error) {
	for _, candidate := range validDiscountGroupStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount group status %q", value)
}
