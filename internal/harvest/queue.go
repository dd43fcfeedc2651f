package harvest

import (
	"context"
	"fmt"

	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
)

type taskStore interface {
	Insert(ctx context.Context, shop, productGID string, variantIDs []int64) error
}

// Queue accepts harvest requests from the reconciler. The worker drains
// them asynchronously so bulk writes never block on the read-back.
type Queue struct {
	repo taskStore
}

// NewQueue builds a harvest queue over the task store.
func NewQueue(repo taskStore) (*Queue, error) {
	if repo == nil {
		return nil, fmt.Errorf("harvest task store required")
	}
	return &Queue{repo: repo}, nil
}

// Enqueue schedules a metafield-ID harvest for one product.
func (q *Queue) Enqueue(ctx context.Context, shop, productGID string, variantIDs []int64) error {
	if shop == "" || productGID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop and product gid are required")
	}
	if len(variantIDs) == 0 {
		return nil
	}
	return q.repo.Insert(ctx, shop, productGID, variantIDs)
}
