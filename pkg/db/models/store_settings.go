package models

import (
	"encoding/json"
	"time"

	"github.com/aroma360/discounts-backend/pkg/enums"
)

// StoreSettings is the global per-shop row tracking catalog sync state and
// the metafield definitions installed on the shop.
type StoreSettings struct {
	ID                int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	Shop              string                  `gorm:"column:shop;not null;uniqueIndex"`
	AccessToken       *string                 `gorm:"column:access_token"`
	ProductSyncStatus enums.ProductSyncStatus `gorm:"column:product_sync_status;not null;default:YET_TO_START"`
	MetafieldsDef     json.RawMessage         `gorm:"column:metafields_def;type:jsonb"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the gorm naming override.
func (StoreSettings) TableName() string {
	return "store_settings"
}
