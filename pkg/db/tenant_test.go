package db

import "testing"

func TestTenantTable(t *testing.T) {
	cases := []struct {
		shop   string
		suffix string
		want   string
	}{
		{"example.myshopify.com", TenantProductsSuffix, "example_myshopify_com_products"},
		{"Example.MyShopify.com", TenantDiscountGroupsSuffix, "example_myshopify_com_discountgroups"},
		{" spaced.myshopify.com ", TenantProductsSuffix, "spaced_myshopify_com_products"},
		{"weird;drop--shop", TenantProductsSuffix, "weird_drop__shop_products"},
	}
	for _, tc := range cases {
		if got := TenantTable(tc.shop, tc.suffix); got != tc.want {
			t.Fatalf("TenantTable(%q, %q) = %q, want %q", tc.shop, tc.suffix, got, tc.want)
		}
	}
}
