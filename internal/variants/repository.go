// Package variants persists and queries the per-shop variant tables.
package variants

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aroma360/discounts-backend/internal/criteria"
	"github.com/aroma360/discounts-backend/internal/discountmath"
	"github.com/aroma360/discounts-backend/pkg/db"
	"github.com/aroma360/discounts-backend/pkg/db/models"
	"github.com/aroma360/discounts-backend/pkg/enums"
)

// MetafieldIDs carries the four harvested metafield GIDs for one variant.
// Nil fields are left untouched on save.
type MetafieldIDs struct {
	OnetimePercentage      *string
	OnetimePrice           *string
	SubscriptionPercentage *string
	SubscriptionPrice      *string
}

// Repository provides variant persistence over the tenant tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(gdb *gorm.DB) *Repository {
	return &Repository{db: gdb}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) table(shop string) string {
	return db.TenantTable(shop, db.TenantProductsSuffix)
}

// Filter returns the ACTIVE variants matching every predicate. By default
// only unassigned variants match; when editing an existing group its own
// members stay eligible so the edit page can re-select them.
func (r *Repository) Filter(ctx context.Context, shop string, preds []criteria.Predicate, editGroupID *int64) ([]models.Variant, error) {
	q := r.db.WithContext(ctx).Table(r.table(shop)).
		Where("status = ?", enums.VariantStatusActive)

	if editGroupID != nil {
		q = q.Where("(discount_group IS NULL OR discount_group = ?)", *editGroupID)
	} else {
		q = q.Where("discount_group IS NULL")
	}

	for _, p := range preds {
		cond, arg := p.Clause()
		q = q.Where(cond, arg)
	}

	var rows []models.Variant
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByIDs loads variants by primary key.
func (r *Repository) FindByIDs(ctx context.Context, shop string, ids []int64) ([]models.Variant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Variant
	err := r.db.WithContext(ctx).Table(r.table(shop)).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByGroups returns all variants assigned to any of the given groups.
func (r *Repository) ListByGroups(ctx context.Context, shop string, groupIDs []int64) ([]models.Variant, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var rows []models.Variant
	err := r.db.WithContext(ctx).Table(r.table(shop)).
		Where("discount_group IN ?", groupIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AssignGroup claims the given variants for a group. The IS NULL guard keeps
// two concurrent creations from stealing each other's variants; the returned
// count tells the caller how many claims actually landed.
func (r *Repository) AssignGroup(ctx context.Context, shop string, groupID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Table(r.table(shop)).
		Where("id IN ? AND discount_group IS NULL", ids).
		Update("discount_group", groupID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ClearGroups releases every variant held by the given groups and resets the
// cached discount values.
func (r *Repository) ClearGroups(ctx context.Context, shop string, groupIDs []int64) error {
	if len(groupIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Table(r.table(shop)).
		Where("discount_group IN ?", groupIDs).
		Updates(map[string]any{
			"discount_group":                   nil,
			"onetime_discount_percentage":      nil,
			"onetime_discount_price":           nil,
			"subscription_discount_percentage": nil,
			"subscription_discount_price":      nil,
		}).Error
}

// ClearVariants releases specific variants regardless of which group holds
// them, resetting the cached discount values.
func (r *Repository) ClearVariants(ctx context.Context, shop string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Table(r.table(shop)).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"discount_group":                   nil,
			"onetime_discount_percentage":      nil,
			"onetime_discount_price":           nil,
			"subscription_discount_percentage": nil,
			"subscription_discount_price":      nil,
		}).Error
}

// SaveDiscountValues caches the facet values last pushed to Shopify.
func (r *Repository) SaveDiscountValues(ctx context.Context, shop string, variantID int64, facets discountmath.Facets) error {
	return r.db.WithContext(ctx).Table(r.table(shop)).
		Where("id = ?", variantID).
		Updates(map[string]any{
			"onetime_discount_percentage":      facets.OnetimePercent.StringFixed(discountmath.DefaultPrecision),
			"onetime_discount_price":           facets.OnetimePrice.StringFixed(discountmath.DefaultPrecision),
			"subscription_discount_percentage": facets.SubscriptionPercent.StringFixed(discountmath.DefaultPrecision),
			"subscription_discount_price":      facets.SubscriptionPrice.StringFixed(discountmath.DefaultPrecision),
		}).Error
}

// SaveMetafieldIDs persists harvested metafield GIDs. Only non-nil fields
// are written, so partial harvests never erase earlier ones.
func (r *Repository) SaveMetafieldIDs(ctx context.Context, shop string, variantID int64, ids MetafieldIDs) error {
	updates := map[string]any{}
	if ids.OnetimePercentage != nil {
		updates["onetime_percentage_metafield_id"] = *ids.OnetimePercentage
	}
	if ids.OnetimePrice != nil {
		updates["onetime_price_metafield_id"] = *ids.OnetimePrice
	}
	if ids.SubscriptionPercentage != nil {
		updates["subscription_percentage_metafield_id"] = *ids.SubscriptionPercentage
	}
	if ids.SubscriptionPrice != nil {
		updates["subscription_price_metafield_id"] = *ids.SubscriptionPrice
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Table(r.table(shop)).
		Where("id = ?", variantID).
		Updates(updates).Error
}

// catalogColumns are the columns catalog sync owns. Discount assignment and
// harvested metafield IDs are deliberately absent so a resync never clobbers
// discount state.
var catalogColumns = []string{
	"main_product_id", "status", "variant_title", "display_name",
	"product_title", "product_type", "price", "availability",
	"variant_img", "product_img", "tags_str", "tags_arr",
	"collections_str", "collections_arr", "sku",
}

// BulkUpsert writes catalog rows in batches, inserting new variants and
// refreshing catalog columns on existing ones.
func (r *Repository) BulkUpsert(ctx context.Context, shop string, rows []models.Variant, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = len(rows)
	}

	table := r.table(shop)
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		err := r.db.WithContext(ctx).Table(table).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns(catalogColumns),
			}).
			Create(&batch).Error
		if err != nil {
			return err
		}
	}
	return nil
}
