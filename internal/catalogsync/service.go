package catalogsync

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aroma360/discounts-backend/pkg/config"
	"github.com/aroma360/discounts-backend/pkg/db/models"
	"github.com/aroma360/discounts-backend/pkg/enums"
	"github.com/aroma360/discounts-backend/pkg/logger"
)

type variantUpserter interface {
	BulkUpsert(ctx context.Context, shop string, rows []models.Variant, batchSize int) error
}

type tenantProvisioner interface {
	EnsureTenantTables(ctx context.Context, shop string) error
}

type syncStatusStore interface {
	SetSyncStatus(ctx context.Context, shop string, status enums.ProductSyncStatus) error
}

// Result summarizes one catalog sync run.
type Result struct {
	Variants int
	Duration time.Duration
}

// Service ingests a Shopify bulk export stream into the shop's variant
// table. Discount state on existing rows survives the upsert since only
// catalog columns are overwritten.
type Service interface {
	Sync(ctx context.Context, shop string, export io.Reader) (*Result, error)
}

type service struct {
	variants  variantUpserter
	tenant    tenantProvisioner
	settings  syncStatusStore
	logg      *logger.Logger
	batchSize int
}

// NewService builds a catalog sync service.
func NewService(variants variantUpserter, tenant tenantProvisioner, settings syncStatusStore, cfg config.CatalogSyncConfig, logg *logger.Logger) (Service, error) {
	if variants == nil {
		return nil, fmt.Errorf("variant upserter required")
	}
	if tenant == nil {
		return nil, fmt.Errorf("tenant provisioner required")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		variants:  variants,
		tenant:    tenant,
		settings:  settings,
		logg:      logg,
		batchSize: cfg.BatchSize,
	}, nil
}

func (s *service) Sync(ctx context.Context, shop string, export io.Reader) (*Result, error) {
	ctx = s.logg.WithShop(ctx, shop)
	ctx = s.logg.WithField(ctx, "event", "catalog.sync")
	start := time.Now()

	if err := s.tenant.EnsureTenantTables(ctx, shop); err != nil {
		return nil, err
	}
	if err := s.settings.SetSyncStatus(ctx, shop, enums.ProductSyncStatusInProgress); err != nil {
		return nil, err
	}

	rows, err := ParseExport(ctx, export)
	if err != nil {
		s.logg.Error(ctx, "catalog export parse failed", err)
		return nil, err
	}
	if err := s.variants.BulkUpsert(ctx, shop, rows, s.batchSize); err != nil {
		s.logg.Error(ctx, "catalog upsert failed", err)
		return nil, err
	}
	if err := s.settings.SetSyncStatus(ctx, shop, enums.ProductSyncStatusComplete); err != nil {
		return nil, err
	}

	result := &Result{Variants: len(rows), Duration: time.Since(start)}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"variant_count": result.Variants,
		"duration_ms":   result.Duration.Milliseconds(),
	})
	s.logg.Info(ctx, "catalog sync complete")
	return result, nil
}
