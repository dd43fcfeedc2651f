package controllers

import (
	"net/http"

	"github.com/aroma360/discounts-backend/api/middleware"
	"github.com/aroma360/discounts-backend/api/responses"
	"github.com/aroma360/discounts-backend/internal/catalogsync"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/logger"
)

// CatalogSync ingests a Shopify bulk export stream (JSONL body) into the
// shop's variant table. The body is consumed as a stream and never fully
// buffered.
func CatalogSync(svc catalogsync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog sync service unavailable"))
			return
		}
		shop := middleware.ShopFromContext(r.Context())

		result, err := svc.Sync(r.Context(), shop, r.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"variants":    result.Variants,
			"duration_ms": result.Duration.Milliseconds(),
		})
	}
}
