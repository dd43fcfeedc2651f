// Package discountgroups owns discount group persistence and the
// reconciliation flow that keeps Shopify metafields in line with group
// membership.
package discountgroups

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aroma360/discounts-backend/pkg/db"
	"github.com/aroma360/discounts-backend/pkg/db/models"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
)

// Repository provides discount group persistence over the tenant tables.
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
	return db.TenantTable(shop, db.TenantDiscountGroupsSuffix)
}

// Create inserts the group and backfills its generated ID.
func (r *Repository) Create(ctx context.Context, shop string, group *models.DiscountGroup) error {
	return r.db.WithContext(ctx).Table(r.table(shop)).Create(group).Error
}

// Update saves all mutable columns of an existing group.
func (r *Repository) Update(ctx context.Context, shop string, group *models.DiscountGroup) error {
	res := r.db.WithContext(ctx).Table(r.table(shop)).
		Where("id = ?", group.ID).
		Updates(map[string]any{
			"status":                 group.Status,
			"handle":                 group.Handle,
			"sub_discount_type":      group.SubDiscountType,
			"sub_discount_value":     group.SubDiscountValue,
			"onetime_discount_type":  group.OnetimeDiscountType,
			"onetime_discount_value": group.OnetimeDiscountValue,
			"criterias":              group.Criterias,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("discount group %d not found", group.ID))
	}
	return nil
}

// FindByID loads one group.
func (r *Repository) FindByID(ctx context.Context, shop string, id int64) (*models.DiscountGroup, error) {
	var group models.DiscountGroup
	err := r.db.WithContext(ctx).Table(r.table(shop)).
		First(&group, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("discount group %d not found", id))
		}
		return nil, err
	}
	return &group, nil
}

// List returns every group for the shop, newest first.
func (r *Repository) List(ctx context.Context, shop string) ([]models.DiscountGroup, error) {
	var groups []models.DiscountGroup
	err := r.db.WithContext(ctx).Table(r.table(shop)).
		Order("created_at DESC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// Delete removes the given groups.
func (r *Repository) Delete(ctx context.Context, shop string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Table(r.table(shop)).
		Where("id IN ?", ids).
		Delete(&models.DiscountGroup{}).Error
}
