package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aroma360/discounts-backend/internal/catalogsync"
	"github.com/aroma360/discounts-backend/internal/criteria"
	"github.com/aroma360/discounts-backend/internal/discountgroups"
	"github.com/aroma360/discounts-backend/pkg/config"
	"github.com/aroma360/discounts-backend/pkg/db/models"
	"github.com/aroma360/discounts-backend/pkg/enums"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/logger"
	"github.com/aroma360/discounts-backend/pkg/shopify"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubGroupService struct {
	filtered []models.Variant
}

func (s *stubGroupService) FilterCandidates(_ context.Context, shop string, _ []criteria.Condition, _ *int64) ([]models.Variant, error) {
	if shop == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "shop context lost")
	}
	return s.filtered, nil
}

func (s *stubGroupService) CreateGroup(context.Context, shopify.Credentials, discountgroups.GroupInput) (*discountgroups.ReconciliationResult, error) {
	return &discountgroups.ReconciliationResult{GroupIDs: []int64{1}}, nil
}

func (s *stubGroupService) UpdateGroup(context.Context, shopify.Credentials, int64, discountgroups.GroupInput) (*discountgroups.ReconciliationResult, error) {
	return &discountgroups.ReconciliationResult{GroupIDs: []int64{1}}, nil
}

func (s *stubGroupService) DeleteGroups(context.Context, shopify.Credentials, []int64) (*discountgroups.ReconciliationResult, error) {
	return &discountgroups.ReconciliationResult{}, nil
}

func (s *stubGroupService) ListGroups(context.Context, string) ([]models.DiscountGroup, error) {
	return []models.DiscountGroup{{ID: 1, Handle: "summer", Status: enums.DiscountGroupStatusActive}}, nil
}

func (s *stubGroupService) GetGroup(context.Context, string, int64) (*models.DiscountGroup, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount group not found")
}

type stubStoreService struct{}

func (stubStoreService) Register(_ context.Context, shop, token string) (*models.StoreSettings, error) {
	return &models.StoreSettings{Shop: shop, AccessToken: &token}, nil
}

func (stubStoreService) Get(_ context.Context, shop string) (*models.StoreSettings, error) {
	return &models.StoreSettings{Shop: shop}, nil
}

func (stubStoreService) SetSyncStatus(context.Context, string, enums.ProductSyncStatus) error {
	return nil
}

func (stubStoreService) Credentials(context.Context, string) (shopify.Credentials, error) {
	return shopify.Credentials{}, nil
}

type stubSyncService struct{}

func (stubSyncService) Sync(_ context.Context, _ string, body io.Reader) (*catalogsync.Result, error) {
	_, _ = io.Copy(io.Discard, body)
	return &catalogsync.Result{Variants: 3}, nil
}

func newTestRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	return NewRouter(cfg, logg, stubPinger{}, nil, stubStoreService{}, &stubGroupService{}, stubSyncService{})
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter()
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-A360-Env") != "test" {
		t.Fatalf("missing env header")
	}
}

func TestShopHeaderRequired(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/variants/filter", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestShopDomainValidated(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/discount-groups/", nil)
	req.Header.Set("X-Shop-Domain", "not-a-shop.example.com")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVariantsFilter(t *testing.T) {
	router := newTestRouter()
	body := `{"criterias":[{"property_name":"tags","operator":"like","property_value":"sale"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/variants/filter", strings.NewReader(body))
	req.Header.Set("X-Shop-Domain", "example.myshopify.com")
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestVariantsFilterEmptyCriteria(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/variants/filter", strings.NewReader(`{"criterias":[]}`))
	req.Header.Set("X-Shop-Domain", "example.myshopify.com")
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// No conditions previews every unassigned active variant.
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateGroupRequiresAccessToken(t *testing.T) {
	router := newTestRouter()
	body := `{"handle":"summer","criterias":[{"property_name":"tags","operator":"like","property_value":"sale"}],"onetime_discount_type":"PERCENTAGE","onetime_discount_value":10,"sub_discount_type":"PERCENTAGE","sub_discount_value":15,"variant_ids":[101]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/discount-groups/", strings.NewReader(body))
	req.Header.Set("X-Shop-Domain", "example.myshopify.com")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateGroup(t *testing.T) {
	router := newTestRouter()
	body := `{"handle":"summer","criterias":[{"property_name":"tags","operator":"like","property_value":"sale"}],"onetime_discount_type":"PERCENTAGE","onetime_discount_value":10,"sub_discount_type":"PERCENTAGE","sub_discount_value":15,"variant_ids":[101]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/discount-groups/", strings.NewReader(body))
	req.Header.Set("X-Shop-Domain", "example.myshopify.com")
	req.Header.Set("X-Shopify-Access-Token", "shpat_test")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestGroupDetailNotFound(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/discount-groups/42", nil)
	req.Header.Set("X-Shop-Domain", "example.myshopify.com")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCatalogSync(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/sync", strings.NewReader(`{"id":"gid://shopify/ProductVariant/1"}`))
	req.Header.Set("X-Shop-Domain", "example.myshopify.com")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}
