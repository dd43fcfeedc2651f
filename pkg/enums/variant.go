package enums

import "fmt"

// VariantStatus mirrors the Shopify product status carried on each variant row.
type VariantStatus string

const (
	VariantStatusActive   VariantStatus = "ACTIVE"
	VariantStatusDraft    VariantStatus = "DRAFT"
	VariantStatusArchived VariantStatus = "ARCHIVED"
)

var validVariantStatuses = []VariantStatus{
	VariantStatusActive,
	VariantStatusDraft,
	VariantStatusArchived,
}

// String implements fmt.Stringer.
func (s VariantStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known VariantStatus.
func (s VariantStatus) IsValid() bool {
	for _, candidate := range validVariantStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseVariantStatus converts raw input into a VariantStatus.
func ParseVariantStatus(value string) (VariantStatus, error) {
	for _, candidate := range validVariantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid variant status %q", value)
}
