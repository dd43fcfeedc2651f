package controllers

import (
	"net/http"

	"github.com/aroma360/discounts-backend/api/middleware"
	"github.com/aroma360/discounts-backend/api/responses"
	"github.com/aroma360/discounts-backend/api/validators"
	"github.com/aroma360/discounts-backend/internal/criteria"
	"github.com/aroma360/discounts-backend/internal/discountgroups"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/logger"
)

type filterVariantsRequest struct {
	// An empty list previews every unassigned active variant.
	Criterias []criteria.Condition `json:"criterias" validate:"omitempty,dive"`
	// Set on the edit screen so the group's own members stay visible.
	CurrentGroupID *int64 `json:"current_group_id,omitempty" validate:"omitempty,min=1"`
}

// VariantsFilter previews which variants a condition set would capture.
func VariantsFilter(svc discountgroups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount group service unavailable"))
			return
		}
		var payload filterVariantsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop := middleware.ShopFromContext(r.Context())
		rows, err := svc.FilterCandidates(r.Context(), shop, payload.Criterias, payload.CurrentGroupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
