package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/aroma360/discounts-backend/api/middleware"
	"github.com/aroma360/discounts-backend/api/responses"
	"github.com/aroma360/discounts-backend/api/validators"
	"github.com/aroma360/discounts-backend/internal/criteria"
	"github.com/aroma360/discounts-backend/internal/discountgroups"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/logger"
	"github.com/aroma360/discounts-backend/pkg/shopify"
)

type groupRequest struct {
	Handle               string               `json:"handle" validate:"required"`
	Criterias            []criteria.Condition `json:"criterias" validate:"required,min=1,dive"`
	OnetimeDiscountType  string               `json:"onetime_discount_type" validate:"required"`
	OnetimeDiscountValue decimal.Decimal      `json:"onetime_discount_value" validate:"required"`
	SubDiscountType      string               `json:"sub_discount_type" validate:"required"`
	SubDiscountValue     decimal.Decimal      `json:"sub_discount_value" validate:"required"`
	VariantIDs           []int64              `json:"variant_ids" validate:"required,min=1"`
}

func (p groupRequest) toInput() discountgroups.GroupInput {
	return discountgroups.GroupInput{
		Handle:               p.Handle,
		Conditions:           p.Criterias,
		OnetimeDiscountType:  p.OnetimeDiscountType,
		OnetimeDiscountValue: p.OnetimeDiscountValue,
		SubDiscountType:      p.SubDiscountType,
		SubDiscountValue:     p.SubDiscountValue,
		SelectedVariantIDs:   p.VariantIDs,
	}
}

type reconciliationResponse struct {
	Outcome discountgroups.ReconcileOutcome     `json:"outcome"`
	Result  *discountgroups.ReconciliationResult `json:"result"`
}

// shopCredentials pulls the Shopify credentials a mutating handler needs
// out of the request context.
func shopCredentials(r *http.Request) (shopify.Credentials, error) {
	shop := middleware.ShopFromContext(r.Context())
	token := middleware.AccessTokenFromContext(r.Context())
	if token == "" {
		return shopify.Credentials{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token header missing")
	}
	return shopify.Credentials{Shop: shop, AccessToken: token}, nil
}

// DiscountGroupCreate persists a new group and reconciles its discounts
// against the selected variants.
func DiscountGroupCreate(svc discountgroups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount group service unavailable"))
			return
		}
		creds, err := shopCredentials(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload groupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateGroup(r.Context(), creds, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, reconciliationResponse{Outcome: result.Outcome(), Result: result})
	}
}

// DiscountGroupUpdate reruns reconciliation for an existing group and
// resets variants that fell out of the selection.
func DiscountGroupUpdate(svc discountgroups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount group service unavailable"))
			return
		}
		creds, err := shopCredentials(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := groupIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload groupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateGroup(r.Context(), creds, groupID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reconciliationResponse{Outcome: result.Outcome(), Result: result})
	}
}

type deleteGroupsRequest struct {
	GroupIDs []int64 `json:"group_ids" validate:"required,min=1"`
}

// DiscountGroupDelete resets metafields to neutral values, unassigns
// variants, and removes the group rows.
func DiscountGroupDelete(svc discountgroups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount group service unavailable"))
			return
		}
		creds, err := shopCredentials(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload deleteGroupsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.DeleteGroups(r.Context(), creds, payload.GroupIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reconciliationResponse{Outcome: result.Outcome(), Result: result})
	}
}

// DiscountGroupList returns every group for the shop, newest first.
func DiscountGroupList(svc discountgroups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount group service unavailable"))
			return
		}
		groups, err := svc.ListGroups(r.Context(), middleware.ShopFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, groups)
	}
}

// DiscountGroupDetail loads one group for the edit screen.
func DiscountGroupDetail(svc discountgroups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount group service unavailable"))
			return
		}
		groupID, err := groupIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := svc.GetGroup(r.Context(), middleware.ShopFromContext(r.Context()), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, group)
	}
}

func groupIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "groupId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid group id").
			WithDetails(map[string]any{"group_id": raw})
	}
	return id, nil
}
