package shopify

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aroma360/discounts-backend/pkg/config"
	"github.com/aroma360/discounts-backend/pkg/logger"
)

// Outcome is the settled result of one product's bulk update. Exactly one of
// Result or Err is set.
type Outcome struct {
	ProductGID string
	Result     *BulkUpdateResult
	Err        error
}

// Gateway fans bulk updates out across products. Every call settles: one
// product failing never aborts its siblings, and outcomes come back in input
// order so callers can correlate.
type Gateway struct {
	client         *Client
	logger         *logger.Logger
	maxConcurrency int
	perCallTimeout time.Duration
}

// NewGateway builds a Gateway over an initialized client.
func NewGateway(client *Client, cfg config.ShopifyConfig, logg *logger.Logger) *Gateway {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Gateway{
		client:         client,
		logger:         logg,
		maxConcurrency: maxConcurrency,
		perCallTimeout: cfg.RequestTimeout,
	}
}

// DispatchBulkUpdates runs one bulk update per product write and collects
// per-item outcomes. No retries happen at this layer.
func (g *Gateway) DispatchBulkUpdates(ctx context.Context, creds Credentials, writes []ProductWrite) []Outcome {
	outcomes := make([]Outcome, len(writes))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.maxConcurrency)

	for i, write := range writes {
		group.Go(func() error {
			callCtx := groupCtx
			if g.perCallTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(groupCtx, g.perCallTimeout)
				defer cancel()
			}

			result, err := g.client.BulkUpdateVariantMetafields(callCtx, creds, write)
			outcomes[i] = Outcome{ProductGID: write.ProductGID, Result: result, Err: err}
			return nil
		})
	}

	// Workers never return errors, so this only waits.
	_ = group.Wait()

	if g.logger != nil {
		failed := 0
		for _, o := range outcomes {
			if o.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			ctx = g.logger.WithFields(ctx, map[string]any{
				"shop":         creds.Shop,
				"total_count":  len(outcomes),
				"failed_count": failed,
			})
			g.logger.Warn(ctx, "bulk update dispatch settled with failures")
		}
	}

	return outcomes
}
