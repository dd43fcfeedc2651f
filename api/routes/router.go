package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aroma360/discounts-backend/api/controllers"
	"github.com/aroma360/discounts-backend/api/middleware"
	"github.com/aroma360/discounts-backend/internal/catalogsync"
	"github.com/aroma360/discounts-backend/internal/discountgroups"
	"github.com/aroma360/discounts-backend/internal/stores"
	"github.com/aroma360/discounts-backend/pkg/config"
	"github.com/aroma360/discounts-backend/pkg/db"
	"github.com/aroma360/discounts-backend/pkg/logger"
	"github.com/aroma360/discounts-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	storeService stores.Service,
	groupService discountgroups.Service,
	syncService catalogsync.Service,
) http.Handler {
	var (
		redisPinger redis.Pinger
		idemStore   redis.IdempotencyStore
		limitStore  redis.RateLimiterStore
	)
	if redisClient != nil {
		redisPinger = redisClient
		idemStore = redisClient
		limitStore = redisClient
	}

	shopPolicy := middleware.NewShopRateLimitPolicy("api", cfg.RateLimit.Window, cfg.RateLimit.ShopLimit)
	syncPolicy := middleware.NewShopRateLimitPolicy("catalog_sync", cfg.RateLimit.SyncWindow, cfg.RateLimit.SyncLimit)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ShopContext(logg))
		r.Use(middleware.ShopRateLimit(shopPolicy, limitStore, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/stores", func(r chi.Router) {
			r.Post("/register", controllers.StoreRegister(storeService, logg))
			r.Get("/me", controllers.StoreProfile(storeService, logg))
		})

		r.Post("/variants/filter", controllers.VariantsFilter(groupService, logg))

		r.Route("/discount-groups", func(r chi.Router) {
			r.Get("/", controllers.DiscountGroupList(groupService, logg))
			r.Post("/", controllers.DiscountGroupCreate(groupService, logg))
			r.Delete("/", controllers.DiscountGroupDelete(groupService, logg))
			r.Get("/{groupId}", controllers.DiscountGroupDetail(groupService, logg))
			r.Put("/{groupId}", controllers.DiscountGroupUpdate(groupService, logg))
		})

		r.With(middleware.ShopRateLimit(syncPolicy, limitStore, logg)).
			Post("/catalog/sync", controllers.CatalogSync(syncService, logg))
	})

	return r
}
