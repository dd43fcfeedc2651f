package harvest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aroma360/discounts-backend/pkg/db/models"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// taskPayload is the JSON body stored on each harvest task.
type taskPayload struct {
	VariantIDs []int64 `json:"variant_ids"`
}

// Repository handles harvest task persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to harvest task operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert records a pending harvest for one product's variants.
func (r *Repository) Insert(ctx context.Context, shop, productGID string, variantIDs []int64) error {
	payload, err := json.Marshal(taskPayload{VariantIDs: variantIDs})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal harvest payload")
	}
	task := models.HarvestTask{
		Shop:       shop,
		ProductGID: productGID,
		Payload:    payload,
	}
	if err := r.db.WithContext(ctx).Create(&task).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert harvest task")
	}
	return nil
}

// ListPending returns incomplete tasks that have attempts left, oldest
// first so a wedged task cannot starve newer ones forever.
func (r *Repository) ListPending(ctx context.Context, limit, maxAttempts int) ([]models.HarvestTask, error) {
	var tasks []models.HarvestTask
	err := r.db.WithContext(ctx).
		Where("completed_at IS NULL AND attempt_count < ?", maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending harvest tasks")
	}
	return tasks, nil
}

// CountPending reports the backlog of incomplete tasks with attempts left.
func (r *Repository) CountPending(ctx context.Context, maxAttempts int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.HarvestTask{}).
		Where("completed_at IS NULL AND attempt_count < ?", maxAttempts).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count pending harvest tasks")
	}
	return count, nil
}

// MarkCompleted stamps a task as drained.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).
		Model(&models.HarvestTask{}).
		Where("id = ?", id).
		Updates(map[string]any{"completed_at": now, "last_error": nil}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark harvest task completed")
	}
	return nil
}

// RecordFailure bumps the attempt counter and stores the latest error.
func (r *Repository) RecordFailure(ctx context.Context, id uuid.UUID, cause error) error {
	msg := cause.Error()
	err := r.db.WithContext(ctx).
		Model(&models.HarvestTask{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"last_error":    msg,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record harvest failure")
	}
	return nil
}
