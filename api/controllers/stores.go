package controllers

import (
	"net/http"

	"github.com/aroma360/discounts-backend/api/middleware"
	"github.com/aroma360/discounts-backend/api/responses"
	"github.com/aroma360/discounts-backend/internal/stores"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/logger"
)

// StoreRegister records a shop on install and stores its offline token so
// background workers can call the Admin API on its behalf.
func StoreRegister(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}
		shop := middleware.ShopFromContext(r.Context())
		token := middleware.AccessTokenFromContext(r.Context())

		settings, err := svc.Register(r.Context(), shop, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, settings)
	}
}

// StoreProfile returns the shop's settings row, including sync status.
func StoreProfile(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}
		settings, err := svc.Get(r.Context(), middleware.ShopFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}
