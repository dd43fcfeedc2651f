package stores

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aroma360/discounts-backend/pkg/db/models"
	"github.com/aroma360/discounts-backend/pkg/enums"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/shopify"
)

type settingsRepository interface {
	Upsert(ctx context.Context, shop string, accessToken *string) (*models.StoreSettings, error)
	FindByShop(ctx context.Context, shop string) (*models.StoreSettings, error)
	SetSyncStatus(ctx context.Context, shop string, status enums.ProductSyncStatus) error
	SetMetafieldsDef(ctx context.Context, shop string, def []byte) error
}

// Service exposes store settings operations.
type Service interface {
	Register(ctx context.Context, shop, accessToken string) (*models.StoreSettings, error)
	Get(ctx context.Context, shop string) (*models.StoreSettings, error)
	SetSyncStatus(ctx context.Context, shop string, status enums.ProductSyncStatus) error
	Credentials(ctx context.Context, shop string) (shopify.Credentials, error)
}

type service struct {
	repo settingsRepository
}

// NewService builds a store settings service.
func NewService(repo settingsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

// Register records a shop on install: it stores the offline token and the
// metafield definition set the reconciler will write against.
func (s *service) Register(ctx context.Context, shop, accessToken string) (*models.StoreSettings, error) {
	if shop == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop is required")
	}
	if accessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access token is required")
	}
	settings, err := s.repo.Upsert(ctx, shop, &accessToken)
	if err != nil {
		return nil, err
	}
	def, err := json.Marshal(shopify.MetafieldDefinitions())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode metafield definitions")
	}
	if err := s.repo.SetMetafieldsDef(ctx, shop, def); err != nil {
		return nil, err
	}
	settings.MetafieldsDef = def
	return settings, nil
}

// Get loads the settings row for a shop.
func (s *service) Get(ctx context.Context, shop string) (*models.StoreSettings, error) {
	if shop == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop is required")
	}
	return s.repo.FindByShop(ctx, shop)
}

// SetSyncStatus transitions the catalog sync state for a shop.
func (s *service) SetSyncStatus(ctx context.Context, shop string, status enums.ProductSyncStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid sync status").
			WithDetails(map[string]any{"status": string(status)})
	}
	return s.repo.SetSyncStatus(ctx, shop, status)
}

// Credentials resolves the stored offline token into Shopify credentials.
// A registered shop without a token cannot make admin calls.
func (s *service) Credentials(ctx context.Context, shop string) (shopify.Credentials, error) {
	settings, err := s.repo.FindByShop(ctx, shop)
	if err != nil {
		return shopify.Credentials{}, err
	}
	if settings.AccessToken == nil || *settings.AccessToken == "" {
		return shopify.Credentials{}, pkgerrors.New(pkgerrors.CodeStateConflict, "shop has no stored access token").
			WithDetails(map[string]any{"shop": shop})
	}
	return shopify.Credentials{Shop: settings.Shop, AccessToken: *settings.AccessToken}, nil
}
