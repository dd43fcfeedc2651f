package shopify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/logger"
	"github.com/rs/zerolog"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		apiVersion: "2024-10",
		logger:     testLogger(),
		baseURL:    server.URL,
	}
	return c, server
}

func testCreds() Credentials {
	return Credentials{Shop: "example.myshopify.com", AccessToken: "shpat_test"}
}

func TestMetafieldWriteJSONShapes(t *testing.T) {
	create := NewMetafieldCreate(KeyOnetimePrice, "12.34")
	data, err := json.Marshal(create)
	if err != nil {
		t.Fatalf("marshal create: %v", err)
	}
	want := `{"namespace":"a360_discounts","key":"onetime_discount_price","value":"12.34","type":"number_decimal"}`
	if string(data) != want {
		t.Fatalf("create shape mismatch:\n got %s\nwant %s", data, want)
	}

	update := NewMetafieldUpdate("gid://shopify/Metafield/42", "5.00")
	data, err = json.Marshal(update)
	if err != nil {
		t.Fatalf("marshal update: %v", err)
	}
	want = `{"id":"gid://shopify/Metafield/42","value":"5.00"}`
	if string(data) != want {
		t.Fatalf("update shape mismatch:\n got %s\nwant %s", data, want)
	}

	var roundTripped MetafieldWrite
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	if !roundTripped.IsUpdate() || roundTripped.Value() != "5.00" {
		t.Fatalf("expected update shape after round trip, got %+v", roundTripped)
	}
}

func TestBulkUpdateVariantMetafields(t *testing.T) {
	var gotToken string
	var gotBody map[string]any
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(accessTokenHeader)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{
			"data": {
				"productVariantsBulkUpdate": {
					"product": {"id": "gid://shopify/Product/1"},
					"productVariants": [{
						"id": "gid://shopify/ProductVariant/11",
						"metafields": {"edges": [
							{"node": {"id": "gid://shopify/Metafield/101", "namespace": "a360_discounts", "key": "onetime_discount_price", "value": "9.99"}}
						]}
					}],
					"userErrors": []
				}
			}
		}`))
	})

	input := ProductWrite{
		ProductGID: "gid://shopify/Product/1",
		Variants: []VariantWrite{{
			VariantGID: "gid://shopify/ProductVariant/11",
			Metafields: []MetafieldWrite{NewMetafieldCreate(KeyOnetimePrice, "9.99")},
		}},
	}
	result, err := client.BulkUpdateVariantMetafields(context.Background(), testCreds(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotToken != "shpat_test" {
		t.Fatalf("expected access token header, got %q", gotToken)
	}
	vars, _ := gotBody["variables"].(map[string]any)
	if vars["productId"] != "gid://shopify/Product/1" {
		t.Fatalf("unexpected productId variable: %v", vars["productId"])
	}

	if len(result.Variants) != 1 {
		t.Fatalf("expected 1 variant result, got %d", len(result.Variants))
	}
	mf := result.Variants[0].Metafields
	if len(mf) != 1 || mf[0].MetafieldGID != "gid://shopify/Metafield/101" || mf[0].Key != KeyOnetimePrice {
		t.Fatalf("unexpected harvested metafields: %+v", mf)
	}
}

func TestBulkUpdateUserErrors(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": {
				"productVariantsBulkUpdate": {
					"product": null,
					"productVariants": [],
					"userErrors": [{"field": ["variants"], "message": "metafield value is invalid"}]
				}
			}
		}`))
	})

	_, err := client.BulkUpdateVariantMetafields(context.Background(), testCreds(), ProductWrite{ProductGID: "gid://shopify/Product/1"})
	if err == nil {
		t.Fatal("expected user errors to surface as an error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error code, got %v", err)
	}
}

func TestBulkUpdateHTTPStatusMapping(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.BulkUpdateVariantMetafields(context.Background(), testCreds(), ProductWrite{ProductGID: "gid://shopify/Product/1"})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
}

func TestBulkUpdateRejectsMissingCredentials(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.BulkUpdateVariantMetafields(context.Background(), Credentials{}, ProductWrite{})
	if err == nil {
		t.Fatal("expected validation error for empty credentials")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestProductVariantMetafields(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": {
				"product": {
					"variants": {"edges": [
						{"node": {
							"id": "gid://shopify/ProductVariant/11",
							"metafields": {"edges": [
								{"node": {"id": "gid://shopify/Metafield/201", "key": "subscription_discount_price", "value": "7.50"}}
							]}
						}}
					]}
				}
			}
		}`))
	})

	results, err := client.ProductVariantMetafields(context.Background(), testCreds(), "gid://shopify/Product/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].VariantGID != "gid://shopify/ProductVariant/11" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].Metafields[0].Key != KeySubscriptionPrice {
		t.Fatalf("unexpected metafield key: %+v", results[0].Metafields)
	}
}

func TestProductVariantMetafieldsNotFound(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"product": null}}`))
	})

	_, err := client.ProductVariantMetafields(context.Background(), testCreds(), "gid://shopify/Product/999")
	if err == nil {
		t.Fatal("expected error for missing product")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestRedact(t *testing.T) {
	if out := redact("access_token", "shpat_abc"); out != "[REDACTED]" {
		t.Fatalf("expected redacted token, got %v", out)
	}
	if out := redact("shop", "example.myshopify.com"); out != "example.myshopify.com" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestDomainCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusTeapot, pkgerrors.CodeValidation},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
	}
	for _, tt := range tests {
		if got := domainCodeForStatus(tt.status); got != tt.code {
			t.Fatalf("status %d expected %s got %s", tt.status, tt.code, got)
		}
	}
}

func TestGIDHelpers(t *testing.T) {
	if got := VariantGID(42); got != "gid://shopify/ProductVariant/42" {
		t.Fatalf("unexpected variant gid %q", got)
	}
	if got := ProductGID(7); got != "gid://shopify/Product/7" {
		t.Fatalf("unexpected product gid %q", got)
	}
	id, err := NumericID("gid://shopify/ProductVariant/123456")
	if err != nil || id != 123456 {
		t.Fatalf("NumericID = %d, %v", id, err)
	}
	if _, err := NumericID("gid://shopify/ProductVariant/abc"); err == nil {
		t.Fatal("expected error for non-numeric tail")
	}
}
