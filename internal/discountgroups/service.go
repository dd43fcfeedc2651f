package discountgroups

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aroma360/discounts-backend/internal/criteria"
	"github.com/aroma360/discounts-backend/internal/discountmath"
	"github.com/aroma360/discounts-backend/pkg/db/models"
	"github.com/aroma360/discounts-backend/pkg/enums"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/logger"
	"github.com/aroma360/discounts-backend/pkg/shopify"
)

// Service exposes discount group management and reconciliation.
type Service interface {
	FilterCandidates(ctx context.Context, shop string, conditions []criteria.Condition, editGroupID *int64) ([]models.Variant, error)
	CreateGroup(ctx context.Context, creds shopify.Credentials, input GroupInput) (*ReconciliationResult, error)
	UpdateGroup(ctx context.Context, creds shopify.Credentials, groupID int64, input GroupInput) (*ReconciliationResult, error)
	DeleteGroups(ctx context.Context, creds shopify.Credentials, groupIDs []int64) (*ReconciliationResult, error)
	ListGroups(ctx context.Context, shop string) ([]models.DiscountGroup, error)
	GetGroup(ctx context.Context, shop string, id int64) (*models.DiscountGroup, error)
}

// Gateway is the external dispatch surface the reconciler needs.
type Gateway interface {
	DispatchBulkUpdates(ctx context.Context, creds shopify.Credentials, writes []shopify.ProductWrite) []shopify.Outcome
}

// HarvestQueue schedules metafield-ID harvests for products whose variants
// took the create path.
type HarvestQueue interface {
	Enqueue(ctx context.Context, shop, productGID string, variantIDs []int64) error
}

type variantStore interface {
	Filter(ctx context.Context, shop string, preds []criteria.Predicate, editGroupID *int64) ([]models.Variant, error)
	FindByIDs(ctx context.Context, shop string, ids []int64) ([]models.Variant, error)
	ListByGroups(ctx context.Context, shop string, groupIDs []int64) ([]models.Variant, error)
	AssignGroup(ctx context.Context, shop string, groupID int64, ids []int64) (int64, error)
	ClearGroups(ctx context.Context, shop string, groupIDs []int64) error
	ClearVariants(ctx context.Context, shop string, ids []int64) error
	SaveDiscountValues(ctx context.Context, shop string, variantID int64, facets discountmath.Facets) error
}

type service struct {
	groups     *Repository
	variants   variantStore
	gateway    Gateway
	harvest    HarvestQueue
	normalizer criteria.Normalizer
	logger     *logger.Logger
}

// NewService constructs the discount group service.
func NewService(groups *Repository, variantRepo variantStore, gateway Gateway, harvest HarvestQueue, normalizer criteria.Normalizer, logg *logger.Logger) (Service, error) {
	if groups == nil {
		return nil, fmt.Errorf("discount group repository required")
	}
	if variantRepo == nil {
		return nil, fmt.Errorf("variant repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("shopify gateway required")
	}
	if harvest == nil {
		return nil, fmt.Errorf("harvest queue required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		groups:     groups,
		variants:   variantRepo,
		gateway:    gateway,
		harvest:    harvest,
		normalizer: normalizer,
		logger:     logg,
	}, nil
}

// FilterCandidates runs a condition set against the shop's catalog and
// returns the variants a group built from it would capture.
func (s *service) FilterCandidates(ctx context.Context, shop string, conditions []criteria.Condition, editGroupID *int64) ([]models.Variant, error) {
	preds, err := s.normalizer.NormalizeAll(conditions)
	if err != nil {
		return nil, err
	}
	rows, err := s.variants.Filter(ctx, shop, preds, editGroupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: filter variants")
	}
	return rows, nil
}

// CreateGroup persists a new group and pushes its discounts to every
// selected variant's metafields.
func (s *service) CreateGroup(ctx context.Context, creds shopify.Credentials, input GroupInput) (*ReconciliationResult, error) {
	parsed, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	group := &models.DiscountGroup{
		Status:               enums.DiscountGroupStatusActive,
		Handle:               strings.TrimSpace(input.Handle),
		SubDiscountType:      parsed.subType,
		SubDiscountValue:     input.SubDiscountValue,
		OnetimeDiscountType:  parsed.onetimeType,
		OnetimeDiscountValue: input.OnetimeDiscountValue,
		Criterias:            parsed.criteriasJSON,
	}
	if err := s.groups.Create(ctx, creds.Shop, group); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert discount group")
	}

	ctx = s.logger.WithDiscountGroup(s.logger.WithShop(ctx, creds.Shop), group.ID)
	return s.reconcile(ctx, creds, group, input.SelectedVariantIDs)
}

// UpdateGroup rewrites an existing group's definition, resets variants that
// dropped out of the selection, and reconciles the new selection.
func (s *service) UpdateGroup(ctx context.Context, creds shopify.Credentials, groupID int64, input GroupInput) (*ReconciliationResult, error) {
	parsed, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	group, err := s.groups.FindByID(ctx, creds.Shop, groupID)
	if err != nil {
		return nil, err
	}

	ctx = s.logger.WithDiscountGroup(s.logger.WithShop(ctx, creds.Shop), group.ID)

	members, err := s.variants.ListByGroups(ctx, creds.Shop, []int64{groupID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load group members")
	}
	removed := removedMembers(members, input.SelectedVariantIDs)

	group.Handle = strings.TrimSpace(input.Handle)
	group.SubDiscountType = parsed.subType
	group.SubDiscountValue = input.SubDiscountValue
	group.OnetimeDiscountType = parsed.onetimeType
	group.OnetimeDiscountValue = input.OnetimeDiscountValue
	group.Criterias = parsed.criteriasJSON
	if err := s.groups.Update(ctx, creds.Shop, group); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update discount group")
	}

	result, err := s.reconcile(ctx, creds, group, input.SelectedVariantIDs)
	if err != nil {
		return nil, err
	}

	if len(removed) > 0 {
		s.resetVariants(ctx, creds, removed, result)
		removedIDs := make([]int64, 0, len(removed))
		for _, v := range removed {
			removedIDs = append(removedIDs, v.ID)
		}
		if err := s.variants.ClearVariants(ctx, creds.Shop, removedIDs); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: release removed variants")
		}
	}
	return result, nil
}

// DeleteGroups resets every held variant's metafields to the neutral value
// and removes the groups. Local deletion always proceeds, even when some
// external resets fail; the failures come back in the result so the caller
// can surface them.
func (s *service) DeleteGroups(ctx context.Context, creds shopify.Credentials, groupIDs []int64) (*ReconciliationResult, error) {
	if len(groupIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one discount group id is required")
	}

	ctx = s.logger.WithShop(ctx, creds.Shop)

	held, err := s.variants.ListByGroups(ctx, creds.Shop, groupIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load group members")
	}

	result := &ReconciliationResult{
		GroupIDs:          groupIDs,
		RequestedVariants: len(held),
	}
	s.resetVariants(ctx, creds, held, result)

	if err := s.variants.ClearGroups(ctx, creds.Shop, groupIDs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: release group variants")
	}
	if err := s.groups.Delete(ctx, creds.Shop, groupIDs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete discount groups")
	}

	s.logger.Info(ctx, fmt.Sprintf("deleted %d discount group(s), outcome %s", len(groupIDs), result.Outcome()))
	return result, nil
}

// ListGroups returns the shop's groups.
func (s *service) ListGroups(ctx context.Context, shop string) ([]models.DiscountGroup, error) {
	groups, err := s.groups.List(ctx, shop)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list discount groups")
	}
	return groups, nil
}

// GetGroup loads one group.
func (s *service) GetGroup(ctx context.Context, shop string, id int64) (*models.DiscountGroup, error) {
	return s.groups.FindByID(ctx, shop, id)
}

type parsedInput struct {
	onetimeType   enums.DiscountType
	subType       enums.DiscountType
	criteriasJSON json.RawMessage
}

func (s *service) validateInput(input GroupInput) (*parsedInput, error) {
	if strings.TrimSpace(input.Handle) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "handle is required")
	}
	onetimeType, err := enums.ParseDiscountType(input.OnetimeDiscountType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid onetime discount type")
	}
	subType, err := enums.ParseDiscountType(input.SubDiscountType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subscription discount type")
	}
	if input.OnetimeDiscountValue.IsNegative() || input.SubDiscountValue.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount values cannot be negative")
	}
	if len(input.SelectedVariantIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one variant must be selected")
	}
	if err := criteria.Validate(input.Conditions); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(input.Conditions)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding conditions")
	}
	return &parsedInput{
		onetimeType:   onetimeType,
		subType:       subType,
		criteriasJSON: raw,
	}, nil
}

// reconcile pushes the group's discounts onto the selected variants and
// claims them. External failures degrade the result instead of aborting:
// re-running the same operation later converges because already-written
// variants fall into the update path.
func (s *service) reconcile(ctx context.Context, creds shopify.Credentials, group *models.DiscountGroup, selectedIDs []int64) (*ReconciliationResult, error) {
	result := &ReconciliationResult{
		GroupIDs:          []int64{group.ID},
		RequestedVariants: len(selectedIDs),
	}

	rows, err := s.variants.FindByIDs(ctx, creds.Shop, selectedIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load selected variants")
	}
	if len(rows) < len(selectedIDs) {
		s.logger.Warn(ctx, fmt.Sprintf("%d selected variant(s) no longer exist locally", len(selectedIDs)-len(rows)))
	}

	onetime := discountmath.Spec{Kind: group.OnetimeDiscountType, Value: group.OnetimeDiscountValue}
	subscription := discountmath.Spec{Kind: group.SubDiscountType, Value: group.SubDiscountValue}

	facetsByID := make(map[int64]discountmath.Facets, len(rows))
	eligible := rows[:0]
	for _, v := range rows {
		facets, err := discountmath.Compute(v.Price, onetime, subscription)
		if err != nil {
			s.logger.Warn(ctx, fmt.Sprintf("skipping variant %d: %v", v.ID, err))
			result.SkippedVariants = append(result.SkippedVariants, v.ID)
			continue
		}
		facetsByID[v.ID] = facets
		eligible = append(eligible, v)
	}

	writes, createBranch := buildWrites(eligible, facetsByID)
	result.TotalProducts = len(writes)

	outcomes := s.gateway.DispatchBulkUpdates(ctx, creds, writes)

	succeededVariants := make([]int64, 0, len(eligible))
	variantsByProduct := groupVariantIDs(eligible)
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			result.FailedProducts = append(result.FailedProducts, ProductFailure{
				ProductGID: outcome.ProductGID,
				Message:    outcome.Err.Error(),
			})
			continue
		}
		ids := variantsByProduct[outcome.ProductGID]
		succeededVariants = append(succeededVariants, ids...)
		for _, id := range ids {
			if err := s.variants.SaveDiscountValues(ctx, creds.Shop, id, facetsByID[id]); err != nil {
				s.logger.Error(ctx, fmt.Sprintf("persisting discount values for variant %d", id), err)
			}
		}
		if createIDs, ok := createBranch[outcome.ProductGID]; ok {
			if err := s.harvest.Enqueue(ctx, creds.Shop, outcome.ProductGID, createIDs); err != nil {
				// Harvest is self-correcting on the next edit, so a failed
				// enqueue is logged and swallowed.
				s.logger.Error(ctx, fmt.Sprintf("enqueueing metafield harvest for %s", outcome.ProductGID), err)
			}
		}
	}

	assignable := make([]int64, 0, len(eligible))
	for _, v := range eligible {
		assignable = append(assignable, v.ID)
	}
	assigned, err := s.variants.AssignGroup(ctx, creds.Shop, group.ID, assignable)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: assign variants to group")
	}
	result.AssignedVariants = assigned

	alreadyMembers := int64(0)
	for _, v := range eligible {
		if v.DiscountGroup != nil && *v.DiscountGroup == group.ID {
			alreadyMembers++
		}
	}
	if assigned+alreadyMembers < int64(len(assignable)) {
		s.logger.Warn(ctx, fmt.Sprintf("%d variant(s) were claimed by another group first", int64(len(assignable))-assigned-alreadyMembers))
	}

	s.logger.Info(ctx, fmt.Sprintf("reconciled discount group, outcome %s", result.Outcome()))
	return result, nil
}

// resetVariants pushes the neutral value to every discount metafield of the
// given variants, accumulating failures into result.
func (s *service) resetVariants(ctx context.Context, creds shopify.Credentials, rows []models.Variant, result *ReconciliationResult) {
	if len(rows) == 0 {
		return
	}
	writes := neutralWrites(rows)
	result.TotalProducts += len(writes)
	for _, outcome := range s.gateway.DispatchBulkUpdates(ctx, creds, writes) {
		if outcome.Err != nil {
			result.FailedProducts = append(result.FailedProducts, ProductFailure{
				ProductGID: outcome.ProductGID,
				Message:    outcome.Err.Error(),
			})
		}
	}
}

// buildWrites groups variants under their parent product and builds the
// metafield writes for each. Variants with all four metafield GIDs take the
// update path; the rest take the create path and are reported per product so
// harvest tasks can be scheduled.
func buildWrites(rows []models.Variant, facetsByID map[int64]discountmath.Facets) ([]shopify.ProductWrite, map[string][]int64) {
	byProduct := make(map[string]*shopify.ProductWrite)
	createBranch := make(map[string][]int64)

	for _, v := range rows {
		productGID := shopify.ProductGID(v.MainProductID)
		write, ok := byProduct[productGID]
		if !ok {
			write = &shopify.ProductWrite{ProductGID: productGID}
			byProduct[productGID] = write
		}

		facets := facetsByID[v.ID]
		var metafields []shopify.MetafieldWrite
		if v.HasAllMetafieldIDs() {
			metafields = []shopify.MetafieldWrite{
				shopify.NewMetafieldUpdate(*v.OnetimePercentageMetafieldID, facets.OnetimePercent.StringFixed(discountmath.DefaultPrecision)),
				shopify.NewMetafieldUpdate(*v.OnetimePriceMetafieldID, facets.OnetimePrice.StringFixed(discountmath.DefaultPrecision)),
				shopify.NewMetafieldUpdate(*v.SubscriptionPercentageMetafieldID, facets.SubscriptionPercent.StringFixed(discountmath.DefaultPrecision)),
				shopify.NewMetafieldUpdate(*v.SubscriptionPriceMetafieldID, facets.SubscriptionPrice.StringFixed(discountmath.DefaultPrecision)),
			}
		} else {
			metafields = []shopify.MetafieldWrite{
				shopify.NewMetafieldCreate(shopify.KeyOnetimePercentage, facets.OnetimePercent.StringFixed(discountmath.DefaultPrecision)),
				shopify.NewMetafieldCreate(shopify.KeyOnetimePrice, facets.OnetimePrice.StringFixed(discountmath.DefaultPrecision)),
				shopify.NewMetafieldCreate(shopify.KeySubscriptionPercentage, facets.SubscriptionPercent.StringFixed(discountmath.DefaultPrecision)),
				shopify.NewMetafieldCreate(shopify.KeySubscriptionPrice, facets.SubscriptionPrice.StringFixed(discountmath.DefaultPrecision)),
			}
			createBranch[productGID] = append(createBranch[productGID], v.ID)
		}

		write.Variants = append(write.Variants, shopify.VariantWrite{
			VariantGID: shopify.VariantGID(v.ID),
			Metafields: metafields,
		})
	}

	return sortedWrites(byProduct), createBranch
}

// neutralWrites builds key-addressed resets to the neutral value for every
// variant. Key addressing works for both fresh and already-created
// metafields, so resets never depend on harvested GIDs.
func neutralWrites(rows []models.Variant) []shopify.ProductWrite {
	byProduct := make(map[string]*shopify.ProductWrite)
	for _, v := range rows {
		productGID := shopify.ProductGID(v.MainProductID)
		write, ok := byProduct[productGID]
		if !ok {
			write = &shopify.ProductWrite{ProductGID: productGID}
			byProduct[productGID] = write
		}
		write.Variants = append(write.Variants, shopify.VariantWrite{
			VariantGID: shopify.VariantGID(v.ID),
			Metafields: []shopify.MetafieldWrite{
				shopify.NewMetafieldCreate(shopify.KeyOnetimePercentage, shopify.NeutralValue),
				shopify.NewMetafieldCreate(shopify.KeyOnetimePrice, shopify.NeutralValue),
				shopify.NewMetafieldCreate(shopify.KeySubscriptionPercentage, shopify.NeutralValue),
				shopify.NewMetafieldCreate(shopify.KeySubscriptionPrice, shopify.NeutralValue),
			},
		})
	}
	return sortedWrites(byProduct)
}

func sortedWrites(byProduct map[string]*shopify.ProductWrite) []shopify.ProductWrite {
	writes := make([]shopify.ProductWrite, 0, len(byProduct))
	for _, w := range byProduct {
		writes = append(writes, *w)
	}
	sort.Slice(writes, func(i, j int) bool { return writes[i].ProductGID < writes[j].ProductGID })
	return writes
}

func groupVariantIDs(rows []models.Variant) map[string][]int64 {
	byProduct := make(map[string][]int64)
	for _, v := range rows {
		gid := shopify.ProductGID(v.MainProductID)
		byProduct[gid] = append(byProduct[gid], v.ID)
	}
	return byProduct
}

func removedMembers(members []models.Variant, selected []int64) []models.Variant {
	keep := make(map[int64]bool, len(selected))
	for _, id := range selected {
		keep[id] = true
	}
	var removed []models.Variant
	for _, v := range members {
		if !keep[v.ID] {
			removed = append(removed, v)
		}
	}
	return removed
}
