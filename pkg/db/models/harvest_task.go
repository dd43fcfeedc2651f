package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HarvestTask records a pending metafield-ID harvest for one product's
// variants after a bulk metafield write. The worker drains these
// outbox-style: claim, call Shopify, persist harvested GIDs, mark done.
type HarvestTask struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Shop         string          `gorm:"column:shop;not null;index"`
	ProductGID   string          `gorm:"column:product_gid;not null"`
	Payload      json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	AttemptCount int             `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string         `gorm:"column:last_error"`
	CompletedAt  *time.Time      `gorm:"column:completed_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName implements the gorm naming override.
func (HarvestTask) TableName() string {
	return "harvest_tasks"
}
