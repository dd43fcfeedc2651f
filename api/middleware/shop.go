package middleware

import (
	"net/http"
	"strings"

	"github.com/aroma360/discounts-backend/api/responses"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/logger"
)

const (
	shopHeader        = "X-Shop-Domain"
	accessTokenHeader = "X-Shopify-Access-Token"
)

// ShopContext extracts the shop domain and admin token from request headers.
// The token is optional at this layer; handlers that dispatch to Shopify
// reject its absence themselves.
func ShopContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shop := strings.ToLower(strings.TrimSpace(r.Header.Get(shopHeader)))
			if shop == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "shop header missing"))
				return
			}
			if !strings.HasSuffix(shop, ".myshopify.com") {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid shop domain"))
				return
			}

			ctx := WithShop(r.Context(), shop)
			if token := strings.TrimSpace(r.Header.Get(accessTokenHeader)); token != "" {
				ctx = WithAccessToken(ctx, token)
			}
			if logg != nil {
				ctx = logg.WithShop(ctx, shop)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
