package models

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/aroma360/discounts-backend/pkg/enums"
)

// Variant is one row of a shop's per-tenant variant table. The primary key
// is the numeric tail of the Shopify ProductVariant GID.
//
// Rows live in `<shop>_products`, so there is no TableName method; every
// query goes through db.TenantTable to pick the right table.
type Variant struct {
	ID            int64               `gorm:"column:id;primaryKey"`
	MainProductID int64               `gorm:"column:main_product_id;not null"`
	Status        enums.VariantStatus `gorm:"column:status;not null"`
	VariantTitle  string              `gorm:"column:variant_title;not null"`
	DisplayName   string              `gorm:"column:display_name;not null"`
	ProductTitle  string              `gorm:"column:product_title;not null"`
	ProductType   *string             `gorm:"column:product_type"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Availability  bool                `gorm:"column:availability"`
	VariantImg    *string             `gorm:"column:variant_img"`
	ProductImg    *string             `gorm:"column:product_img"`

	// Array facets back exact operators, the joined string backs pattern
	// matching. Both are written together at sync time.
	TagsStr        string         `gorm:"column:tags_str"`
	TagsArr        pq.StringArray `gorm:"column:tags_arr;type:text[]"`
	CollectionsStr string         `gorm:"column:collections_str"`
	CollectionsArr pq.StringArray `gorm:"column:collections_arr;type:text[]"`

	SKU *string `gorm:"column:sku"`

	// Last discount values pushed to the variant's metafields.
	OnetimeDiscountPercentage      *string `gorm:"column:onetime_discount_percentage"`
	OnetimeDiscountPrice           *string `gorm:"column:onetime_discount_price"`
	SubscriptionDiscountPercentage *string `gorm:"column:subscription_discount_percentage"`
	SubscriptionDiscountPrice      *string `gorm:"column:subscription_discount_price"`

	// Shopify metafield GIDs harvested after the first bulk write. A variant
	// with all four present takes the cheaper update path on reconcile.
	OnetimePercentageMetafieldID      *string `gorm:"column:onetime_percentage_metafield_id"`
	OnetimePriceMetafieldID           *string `gorm:"column:onetime_price_metafield_id"`
	SubscriptionPercentageMetafieldID *string `gorm:"column:subscription_percentage_metafield_id"`
	SubscriptionPriceMetafieldID      *string `gorm:"column:subscription_price_metafield_id"`

	DiscountGroup *int64 `gorm:"column:discount_group"`
}

// HasAllMetafieldIDs reports whether every discount metafield GID has been
// harvested for this variant.
func (v Variant) HasAllMetafieldIDs() bool {
	return v.OnetimePercentageMetafieldID != nil &&
		v.OnetimePriceMetafieldID != nil &&
		v.SubscriptionPercentageMetafieldID != nil &&
		v.SubscriptionPriceMetafieldID != nil
}
