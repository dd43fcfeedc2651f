package db

import (
	"context"
	"fmt"
	"strings"
)

// Per-shop table suffixes.
const (
	TenantProductsSuffix       = "products"
	TenantDiscountGroupsSuffix = "discountgroups"
)

// TenantTable builds the per-shop table name for a suffix, e.g.
// "example.myshopify.com" + "products" -> "example_myshopify_com_products".
func TenantTable(shop, suffix string) string {
	return fmt.Sprintf("%s_%s", sanitizeShop(shop), suffix)
}

// sanitizeShop lowers the shop domain and collapses anything outside
// [a-z0-9] to underscores so the result is a safe SQL identifier.
func sanitizeShop(shop string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(shop)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// EnsureTenantTables creates the per-shop variant and discount group tables
// if they do not exist yet. Identifiers are built from the sanitized shop
// name, never from raw input.
func (c *Client) EnsureTenantTables(ctx context.Context, shop string) error {
	groups := TenantTable(shop, TenantDiscountGroupsSuffix)
	products := TenantTable(shop, TenantProductsSuffix)

	groupsDDL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id BIGSERIAL PRIMARY KEY,
  status TEXT NOT NULL DEFAULT 'ACTIVE',
  handle TEXT NOT NULL,
  sub_discount_type TEXT NOT NULL,
  sub_discount_value NUMERIC(12,2) NOT NULL,
  onetime_discount_type TEXT NOT NULL,
  onetime_discount_value NUMERIC(12,2) NOT NULL,
  criterias JSONB NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, groups)

	productsDDL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id BIGINT PRIMARY KEY,
  main_product_id BIGINT NOT NULL,
  status TEXT NOT NULL,
  variant_title TEXT NOT NULL,
  display_name TEXT NOT NULL,
  product_title TEXT NOT NULL,
  product_type TEXT,
  price NUMERIC(12,2) NOT NULL,
  availability BOOLEAN,
  variant_img TEXT,
  product_img TEXT,
  tags_str TEXT,
  tags_arr TEXT[],
  collections_str TEXT,
  collections_arr TEXT[],
  sku TEXT,
  onetime_discount_percentage TEXT,
  onetime_discount_price TEXT,
  subscription_discount_percentage TEXT,
  subscription_discount_price TEXT,
  onetime_percentage_metafield_id TEXT,
  onetime_price_metafield_id TEXT,
  subscription_percentage_metafield_id TEXT,
  subscription_price_metafield_id TEXT,
  discount_group BIGINT REFERENCES %s(id)
)`, products, groups)

	if err := c.Exec(ctx, groupsDDL).Error; err != nil {
		return fmt.Errorf("creating %s: %w", groups, err)
	}
	if err := c.Exec(ctx, productsDDL).Error; err != nil {
		return fmt.Errorf("creating %s: %w", products, err)
	}
	return nil
}
