package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aroma360/discounts-backend/internal/variants"
	"github.com/aroma360/discounts-backend/pkg/config"
	"github.com/aroma360/discounts-backend/pkg/db/models"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/logger"
	"github.com/aroma360/discounts-backend/pkg/metrics"
	"github.com/aroma360/discounts-backend/pkg/shopify"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

type taskRepository interface {
	ListPending(ctx context.Context, limit, maxAttempts int) ([]models.HarvestTask, error)
	CountPending(ctx context.Context, maxAttempts int) (int64, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	RecordFailure(ctx context.Context, id uuid.UUID, cause error) error
}

type credentialSource interface {
	Credentials(ctx context.Context, shop string) (shopify.Credentials, error)
}

type metafieldReader interface {
	ProductVariantMetafields(ctx context.Context, creds shopify.Credentials, productGID string) ([]shopify.VariantResult, error)
}

type metafieldIDWriter interface {
	SaveMetafieldIDs(ctx context.Context, shop string, variantID int64, ids variants.MetafieldIDs) error
}

// WorkerParams configure the harvest worker.
type WorkerParams struct {
	Logger      *logger.Logger
	Repo        taskRepository
	Credentials credentialSource
	Shopify     metafieldReader
	Variants    metafieldIDWriter
	Metrics     *metrics.HarvestMetrics
	Config      config.HarvestConfig
}

// Worker drains harvest tasks: for each one it reads the product's
// variant metafields back from Shopify and backfills the metafield GIDs
// onto the tenant variant rows, so later writes take the update path.
type Worker struct {
	logg        *logger.Logger
	repo        taskRepository
	credentials credentialSource
	shopify     metafieldReader
	variants    metafieldIDWriter
	metrics     *metrics.HarvestMetrics
	cfg         config.HarvestConfig
}

// NewWorker builds a harvest worker.
func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("task repository required")
	}
	if params.Credentials == nil {
		return nil, fmt.Errorf("credential source required")
	}
	if params.Shopify == nil {
		return nil, fmt.Errorf("shopify reader required")
	}
	if params.Variants == nil {
		return nil, fmt.Errorf("variant writer required")
	}
	return &Worker{
		logg:        params.Logger,
		repo:        params.Repo,
		credentials: params.Credentials,
		shopify:     params.Shopify,
		variants:    params.Variants,
		metrics:     params.Metrics,
		cfg:         params.Config,
	}, nil
}

// Run starts the polling loop until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := w.RunCycle(ctx); err != nil {
		w.logg.Error(ctx, "harvest cycle failed", err)
	}
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logg.Info(ctx, "harvest worker context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := w.RunCycle(ctx); err != nil {
				w.logg.Error(ctx, "harvest cycle failed", err)
			}
		}
	}
}

// RunCycle drains one batch of pending tasks. Task failures are recorded
// for retry and combined into the returned error; they never stop the batch.
func (w *Worker) RunCycle(ctx context.Context) error {
	tasks, err := w.repo.ListPending(ctx, w.cfg.BatchSize, w.cfg.MaxAttempts)
	if err != nil {
		return err
	}
	var errs []error
	for _, task := range tasks {
		if err := w.runTask(ctx, task); err != nil {
			errs = append(errs, err)
		}
	}
	if backlog, err := w.repo.CountPending(ctx, w.cfg.MaxAttempts); err == nil {
		w.metrics.SetBacklog(int(backlog))
	}
	return multierr.Combine(errs...)
}

func (w *Worker) runTask(ctx context.Context, task models.HarvestTask) error {
	taskCtx := w.logg.WithShop(ctx, task.Shop)
	taskCtx = w.logg.WithFields(taskCtx, map[string]any{
		"event":       "harvest.task",
		"task_id":     task.ID.String(),
		"product_gid": task.ProductGID,
	})
	start := time.Now()
	err := w.processTask(taskCtx, task)
	duration := time.Since(start)
	w.metrics.ObserveDuration(task.Shop, duration)
	taskCtx = w.logg.WithField(taskCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		w.logg.Error(taskCtx, "harvest task failed", err)
		w.metrics.IncFailure(task.Shop)
		if recErr := w.repo.RecordFailure(ctx, task.ID, err); recErr != nil {
			w.logg.Error(taskCtx, "failed to record harvest failure", recErr)
		}
		return fmt.Errorf("task %s: %w", task.ID, err)
	}
	if err := w.repo.MarkCompleted(ctx, task.ID); err != nil {
		w.logg.Error(taskCtx, "failed to mark harvest task completed", err)
		return fmt.Errorf("task %s: %w", task.ID, err)
	}
	w.logg.Info(taskCtx, "harvest task completed")
	w.metrics.IncSuccess(task.Shop)
	return nil
}

func (w *Worker) processTask(ctx context.Context, task models.HarvestTask) error {
	var payload taskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode harvest payload")
	}
	wanted := make(map[int64]bool, len(payload.VariantIDs))
	for _, id := range payload.VariantIDs {
		wanted[id] = true
	}

	creds, err := w.credentials.Credentials(ctx, task.Shop)
	if err != nil {
		return err
	}

	callCtx := ctx
	if w.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, w.cfg.RequestTimeout)
		defer cancel()
	}
	results, err := w.shopify.ProductVariantMetafields(callCtx, creds, task.ProductGID)
	if err != nil {
		return err
	}

	for _, result := range results {
		variantID, err := shopify.NumericID(result.VariantGID)
		if err != nil {
			w.logg.Error(ctx, "skipping variant with malformed gid", err)
			continue
		}
		if !wanted[variantID] {
			continue
		}
		ids := metafieldIDsFromResult(result)
		if err := w.variants.SaveMetafieldIDs(ctx, task.Shop, variantID, ids); err != nil {
			return err
		}
	}
	return nil
}

// metafieldIDsFromResult maps harvested metafields onto the variant
// columns by key. Keys outside the discount set are ignored.
func metafieldIDsFromResult(result shopify.VariantResult) variants.MetafieldIDs {
	var ids variants.MetafieldIDs
	for _, mf := range result.Metafields {
		gid := mf.MetafieldGID
		switch mf.Key {
		case shopify.KeyOnetimePercentage:
			ids.OnetimePercentage = &gid
		case shopify.KeyOnetimePrice:
			ids.OnetimePrice = &gid
		case shopify.KeySubscriptionPercentage:
			ids.SubscriptionPercentage = &gid
		case shopify.KeySubscriptionPrice:
			ids.SubscriptionPrice = &gid
		}
	}
	return ids
}
