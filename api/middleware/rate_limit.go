package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aroma360/discounts-backend/api/responses"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// ShopRateLimitPolicy defines the throttling parameters for a traffic surface.
type ShopRateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int
}

// NewShopRateLimitPolicy builds a policy with the supplied window and limit.
func NewShopRateLimitPolicy(name string, window time.Duration, limit int) ShopRateLimitPolicy {
	return ShopRateLimitPolicy{
		name:   strings.ToLower(strings.TrimSpace(name)),
		window: window,
		limit:  limit,
	}
}

func (p ShopRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p ShopRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "api"
	}
	return p.name
}

func (p ShopRateLimitPolicy) shopKey(shop string) string {
	if shop == "" {
		return ""
	}
	return fmt.Sprintf("rl:shop:%s:%s", p.normalizedName(), shop)
}

// ShopRateLimit enforces a fixed-window counter keyed by the requesting shop.
// It must run after ShopContext so the shop domain is available.
func ShopRateLimit(policy ShopRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			shop := ShopFromContext(ctx)
			key := policy.shopKey(shop)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			count, err := store.IncrWithTTL(ctx, key, policy.window)
			if err != nil {
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if count > int64(policy.limit) {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"policy":         policy.normalizedName(),
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
