package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aroma360/discounts-backend/pkg/config"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/logger"
)

const accessTokenHeader = "X-Shopify-Access-Token"

var (
	errLoggerRequired = errors.New("shopify logger is required")
	errShopRequired   = errors.New("shop domain is required")
	errTokenRequired  = errors.New("shopify access token is required")
)

// Credentials identify one shop for Admin API calls. The service is
// multi-tenant, so credentials ride on every call instead of the client.
type Credentials struct {
	Shop        string
	AccessToken string
}

func (c Credentials) validate() error {
	if strings.TrimSpace(c.Shop) == "" {
		return errShopRequired
	}
	if strings.TrimSpace(c.AccessToken) == "" {
		return errTokenRequired
	}
	return nil
}

// Client wraps the Shopify Admin GraphQL API with centralized logging and
// error mapping.
type Client struct {
	httpClient *http.Client
	apiVersion string
	logger     *logger.Logger

	// baseURL overrides the per-shop host, for tests only.
	baseURL string
}

// NewClient initializes the Shopify wrapper.
func NewClient(cfg config.ShopifyConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		apiVersion: cfg.APIVersion,
		logger:     logg,
	}, nil
}

const bulkUpdateMutation = `
mutation productVariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkUpdate(productId: $productId, variants: $variants) {
    product {
      id
    }
    productVariants {
      id
      metafields(first: 10, namespace: "a360_discounts") {
        edges {
          node {
            id
            namespace
            key
            value
          }
        }
      }
    }
    userErrors {
      field
      message
    }
  }
}`

const variantMetafieldsQuery = `
query productVariantMetafields($id: ID!) {
  product(id: $id) {
    variants(first: 100) {
      edges {
        node {
          id
          metafields(first: 10, namespace: "a360_discounts") {
            edges {
              node {
                id
                key
                value
              }
            }
          }
        }
      }
    }
  }
}`

type metafieldNode struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

type metafieldConnection struct {
	Edges []struct {
		Node metafieldNode `json:"node"`
	} `json:"edges"`
}

type variantNode struct {
	ID         string              `json:"id"`
	Metafields metafieldConnection `json:"metafields"`
}

// BulkUpdateVariantMetafields runs one productVariantsBulkUpdate call for a
// single product and maps the returned variants and metafields.
func (c *Client) BulkUpdateVariantMetafields(ctx context.Context, creds Credentials, input ProductWrite) (*BulkUpdateResult, error) {
	if err := creds.validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shopify credentials")
	}

	c.log(ctx, "request", "bulk_update_variant_metafields", map[string]any{
		"shop":          creds.Shop,
		"product_gid":   input.ProductGID,
		"variant_count": len(input.Variants),
	})

	var payload struct {
		Data struct {
			ProductVariantsBulkUpdate struct {
				Product struct {
					ID string `json:"id"`
				} `json:"product"`
				ProductVariants []variantNode `json:"productVariants"`
				UserErrors      []UserError   `json:"userErrors"`
			} `json:"productVariantsBulkUpdate"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}

	variables := map[string]any{
		"productId": input.ProductGID,
		"variants":  input.Variants,
	}
	if err := c.execute(ctx, creds, bulkUpdateMutation, variables, &payload); err != nil {
		c.log(ctx, "error", "bulk_update_variant_metafields", map[string]any{
			"shop":        creds.Shop,
			"product_gid": input.ProductGID,
			"error":       err.Error(),
		})
		return nil, err
	}

	if len(payload.Errors) > 0 {
		err := pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("shopify graphql error: %s", payload.Errors[0].Message))
		c.log(ctx, "error", "bulk_update_variant_metafields", map[string]any{
			"shop":        creds.Shop,
			"product_gid": input.ProductGID,
			"error":       err.Error(),
		})
		return nil, err
	}

	body := payload.Data.ProductVariantsBulkUpdate
	if len(body.UserErrors) > 0 {
		err := pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("shopify rejected variant update: %s", body.UserErrors[0].Message)).
			WithDetails(body.UserErrors)
		c.log(ctx, "error", "bulk_update_variant_metafields", map[string]any{
			"shop":        creds.Shop,
			"product_gid": input.ProductGID,
			"error":       err.Error(),
		})
		return nil, err
	}

	result := &BulkUpdateResult{ProductGID: input.ProductGID}
	for _, v := range body.ProductVariants {
		result.Variants = append(result.Variants, mapVariantNode(v))
	}

	c.log(ctx, "response", "bulk_update_variant_metafields", map[string]any{
		"shop":          creds.Shop,
		"product_gid":   input.ProductGID,
		"variant_count": len(result.Variants),
	})
	return result, nil
}

// ProductVariantMetafields reads back the discount metafields for every
// variant of a product. The harvest worker uses this to backfill metafield
// GIDs after a create-path bulk write.
func (c *Client) ProductVariantMetafields(ctx context.Context, creds Credentials, productGID string) ([]VariantResult, error) {
	if err := creds.validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shopify credentials")
	}

	c.log(ctx, "request", "product_variant_metafields", map[string]any{
		"shop":        creds.Shop,
		"product_gid": productGID,
	})

	var payload struct {
		Data struct {
			Product *struct {
				Variants struct {
					Edges []struct {
						Node variantNode `json:"node"`
					} `json:"edges"`
				} `json:"variants"`
			} `json:"product"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}

	variables := map[string]any{"id": productGID}
	if err := c.execute(ctx, creds, variantMetafieldsQuery, variables, &payload); err != nil {
		c.log(ctx, "error", "product_variant_metafields", map[string]any{
			"shop":        creds.Shop,
			"product_gid": productGID,
			"error":       err.Error(),
		})
		return nil, err
	}

	if len(payload.Errors) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("shopify graphql error: %s", payload.Errors[0].Message))
	}
	if payload.Data.Product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("shopify product %s not found", productGID))
	}

	results := make([]VariantResult, 0, len(payload.Data.Product.Variants.Edges))
	for _, edge := range payload.Data.Product.Variants.Edges {
		results = append(results, mapVariantNode(edge.Node))
	}

	c.log(ctx, "response", "product_variant_metafields", map[string]any{
		"shop":          creds.Shop,
		"product_gid":   productGID,
		"variant_count": len(results),
	})
	return results, nil
}

func mapVariantNode(v variantNode) VariantResult {
	result := VariantResult{VariantGID: v.ID}
	for _, edge := range v.Metafields.Edges {
		node := edge.Node
		if node.Namespace != "" && node.Namespace != MetafieldNamespace {
			continue
		}
		result.Metafields = append(result.Metafields, HarvestedMetafield{
			MetafieldGID: node.ID,
			Key:          node.Key,
			Value:        node.Value,
		})
	}
	return result
}

func (c *Client) execute(ctx context.Context, creds Credentials, query string, variables map[string]any, out any) error {
	reqBody, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding graphql request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(creds.Shop), bytes.NewReader(reqBody))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building shopify request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accessTokenHeader, creds.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling shopify admin api")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return pkgerrors.New(domainCodeForStatus(resp.StatusCode),
			fmt.Sprintf("shopify admin api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding shopify response")
	}
	return nil
}

func (c *Client) endpoint(shop string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, c.apiVersion)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("shopify %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("shopify %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "password"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
