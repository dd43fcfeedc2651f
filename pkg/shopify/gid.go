package shopify

import (
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
)

const (
	productGIDPrefix = "gid://shopify/Product/"
	variantGIDPrefix = "gid://shopify/ProductVariant/"
)

// ProductGID builds the global ID for a numeric product ID.
func ProductGID(id int64) string {
	return fmt.Sprintf("%s%d", productGIDPrefix, id)
}

// VariantGID builds the global ID for a numeric variant ID.
func VariantGID(id int64) string {
	return fmt.Sprintf("%s%d", variantGIDPrefix, id)
}

// NumericID extracts the trailing numeric ID from any Shopify GID.
func NumericID(gid string) (int64, error) {
	parts := strings.Split(gid, "/")
	tail := parts[len(parts)-1]
	id, err := strconv.ParseInt(tail, 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid shopify gid %q", gid))
	}
	return id, nil
}
