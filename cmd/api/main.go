package main

import (
	"context"
	"net/http"
	"os"

	"github.com/aroma360/discounts-backend/api/routes"
	"github.com/aroma360/discounts-backend/internal/catalogsync"
	"github.com/aroma360/discounts-backend/internal/criteria"
	"github.com/aroma360/discounts-backend/internal/discountgroups"
	"github.com/aroma360/discounts-backend/internal/harvest"
	"github.com/aroma360/discounts-backend/internal/stores"
	"github.com/aroma360/discounts-backend/internal/variants"
	"github.com/aroma360/discounts-backend/pkg/config"
	"github.com/aroma360/discounts-backend/pkg/db"
	"github.com/aroma360/discounts-backend/pkg/logger"
	"github.com/aroma360/discounts-backend/pkg/migrate"
	"github.com/aroma360/discounts-backend/pkg/redis"
	"github.com/aroma360/discounts-backend/pkg/shopify"
	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	storeService, err := stores.NewService(stores.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}

	shopifyClient, err := shopify.NewClient(cfg.Shopify, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shopify client", err)
		os.Exit(1)
	}
	gateway := shopify.NewGateway(shopifyClient, cfg.Shopify, logg)

	harvestQueue, err := harvest.NewQueue(harvest.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create harvest queue", err)
		os.Exit(1)
	}

	variantRepo := variants.NewRepository(dbClient.DB())
	groupService, err := discountgroups.NewService(
		discountgroups.NewRepository(dbClient.DB()),
		variantRepo,
		gateway,
		harvestQueue,
		criteria.NewNormalizer(cfg.Compat.UnanchoredPatterns),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create discount group service", err)
		os.Exit(1)
	}

	syncService, err := catalogsync.NewService(variantRepo, dbClient, storeService, cfg.CatalogSync, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog sync service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, storeService, groupService, syncService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
