package discountgroups

import (
	"github.com/shopspring/decimal"

	"github.com/aroma360/discounts-backend/internal/criteria"
)

// GroupInput is the validated payload to create or update a discount group.
type GroupInput struct {
	Handle               string
	Conditions           []criteria.Condition
	OnetimeDiscountType  string
	OnetimeDiscountValue decimal.Decimal
	SubDiscountType      string
	SubDiscountValue     decimal.Decimal
	SelectedVariantIDs   []int64
}

// ProductFailure records one product whose external mutation failed during
// reconciliation.
type ProductFailure struct {
	ProductGID string `json:"product_gid"`
	Message    string `json:"message"`
}

// ReconcileOutcome summarizes how a reconciliation settled.
type ReconcileOutcome string

const (
	OutcomeSuccess ReconcileOutcome = "SUCCESS"
	OutcomePartial ReconcileOutcome = "PARTIAL"
	OutcomeFailure ReconcileOutcome = "FAILURE"
)

// ReconciliationResult reports what a create, update, or delete actually did:
// how many products were dispatched, which failed, and how many variant
// claims landed. A group can settle PARTIAL and still be usable; re-running
// the same operation picks up where it left off.
type ReconciliationResult struct {
	GroupIDs          []int64          `json:"group_ids"`
	TotalProducts     int              `json:"total_products"`
	FailedProducts    []ProductFailure `json:"failed_products,omitempty"`
	RequestedVariants int              `json:"requested_variants"`
	AssignedVariants  int64            `json:"assigned_variants"`
	SkippedVariants   []int64          `json:"skipped_variants,omitempty"`
}

// Outcome classifies the result.
func (r *ReconciliationResult) Outcome() ReconcileOutcome {
	switch {
	case r.TotalProducts > 0 && len(r.FailedProducts) == r.TotalProducts:
		return OutcomeFailure
	case len(r.FailedProducts) > 0 || len(r.SkippedVariants) > 0:
		return OutcomePartial
	default:
		return OutcomeSuccess
	}
}
