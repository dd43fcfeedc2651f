package stores

import (
	"context"
	"errors"

	"github.com/aroma360/discounts-backend/pkg/db/models"
	"github.com/aroma360/discounts-backend/pkg/enums"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles store settings persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store settings operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Upsert creates or refreshes the settings row for a shop. The access
// token is always overwritten so a reinstall picks up the fresh token.
func (r *Repository) Upsert(ctx context.Context, shop string, accessToken *string) (*models.StoreSettings, error) {
	settings := models.StoreSettings{
		Shop:              shop,
		AccessToken:       accessToken,
		ProductSyncStatus: enums.ProductSyncStatusYetToStart,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "updated_at"}),
		}).
		Create(&settings).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert store settings")
	}
	return r.FindByShop(ctx, shop)
}

// FindByShop loads the settings row for a shop domain.
func (r *Repository) FindByShop(ctx context.Context, shop string) (*models.StoreSettings, error) {
	var settings models.StoreSettings
	err := r.db.WithContext(ctx).Where("shop = ?", shop).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store settings not found").
				WithDetails(map[string]any{"shop": shop})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find store settings")
	}
	return &settings, nil
}

// SetSyncStatus transitions the product sync status for a shop.
func (r *Repository) SetSyncStatus(ctx context.Context, shop string, status enums.ProductSyncStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.StoreSettings{}).
		Where("shop = ?", shop).
		Update("product_sync_status", status)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "update sync status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "store settings not found").
			WithDetails(map[string]any{"shop": shop})
	}
	return nil
}

// SetMetafieldsDef stores the created metafield definition payload.
func (r *Repository) SetMetafieldsDef(ctx context.Context, shop string, def []byte) error {
	res := r.db.WithContext(ctx).
		Model(&models.StoreSettings{}).
		Where("shop = ?", shop).
		Update("metafields_def", def)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "update metafields def")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "store settings not found").
			WithDetails(map[string]any{"shop": shop})
	}
	return nil
}
