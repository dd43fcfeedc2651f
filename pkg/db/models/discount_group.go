package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aroma360/discounts-backend/pkg/enums"
)

// DiscountGroup is a saved filter plus the discount applied to the variants
// it matched. Rows live in `<shop>_discountgroups`.
type DiscountGroup struct {
	ID     int64                     `gorm:"column:id;primaryKey;autoIncrement"`
	Status enums.DiscountGroupStatus `gorm:"column:status;not null;default:ACTIVE"`
	Handle string                    `gorm:"column:handle;not null"`

	SubDiscountType      enums.DiscountType `gorm:"column:sub_discount_type;not null"`
	SubDiscountValue     decimal.Decimal    `gorm:"column:sub_discount_value;type:numeric(12,2);not null"`
	OnetimeDiscountType  enums.DiscountType `gorm:"column:onetime_discount_type;not null"`
	OnetimeDiscountValue decimal.Decimal    `gorm:"column:onetime_discount_value;type:numeric(12,2);not null"`

	// Criterias keeps the raw condition rows as submitted, so the UI can
	// rehydrate the form that produced the group.
	Criterias json.RawMessage `gorm:"column:criterias;type:jsonb;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
