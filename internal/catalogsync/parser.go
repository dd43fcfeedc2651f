package catalogsync

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/aroma360/discounts-backend/pkg/db/models"
	"github.com/aroma360/discounts-backend/pkg/enums"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
	"github.com/aroma360/discounts-backend/pkg/shopify"
	"github.com/shopspring/decimal"
)

// facetDelimiter joins tag and collection lists into the `_str` columns
// that back pattern matching.
const facetDelimiter = ","

// maxLineBytes bounds a single JSONL line. Bulk export lines are small;
// anything past this is a malformed feed.
const maxLineBytes = 1 << 20

type imageLine struct {
	URL string `json:"url"`
}

type productLine struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	Title         string     `json:"title"`
	ProductType   string     `json:"productType"`
	Tags          []string   `json:"tags"`
	FeaturedImage *imageLine `json:"featuredImage"`
}

// exportLine is one record of the Shopify bulk export stream. Parent lines
// are variants carrying an embedded product; child lines are collections
// addressed to their parent variant via __parentId.
type exportLine struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	DisplayName      string       `json:"displayName"`
	Price            string       `json:"price"`
	SKU              *string      `json:"sku"`
	AvailableForSale bool         `json:"availableForSale"`
	Image            *imageLine   `json:"image"`
	Product          *productLine `json:"product"`
	ParentID         string       `json:"__parentId"`
}

// ParseExport flattens a newline-delimited bulk export stream into variant
// rows. Collection lines may precede their parent variant line, so unmatched
// ones are held back and reconciled after the full pass.
func ParseExport(ctx context.Context, r io.Reader) ([]models.Variant, error) {
	var (
		rows       []models.Variant
		rowIndex   = map[int64]int{}
		pending    = map[int64][]string{}
		lineNumber int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lineNumber++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var line exportLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed export line").
				WithDetails(map[string]any{"line": lineNumber})
		}

		if line.ParentID != "" {
			parentID, err := shopify.NumericID(line.ParentID)
			if err != nil {
				return nil, err
			}
			if idx, ok := rowIndex[parentID]; ok {
				rows[idx].CollectionsArr = append(rows[idx].CollectionsArr, line.Title)
			} else {
				pending[parentID] = append(pending[parentID], line.Title)
			}
			continue
		}

		row, err := variantFromLine(line)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeFor(err), err, "invalid variant line").
				WithDetails(map[string]any{"line": lineNumber})
		}
		rowIndex[row.ID] = len(rows)
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read export stream")
	}

	for parentID, titles := range pending {
		if idx, ok := rowIndex[parentID]; ok {
			rows[idx].CollectionsArr = append(rows[idx].CollectionsArr, titles...)
		}
	}

	for i := range rows {
		rows[i].TagsStr = strings.Join(rows[i].TagsArr, facetDelimiter)
		rows[i].CollectionsStr = strings.Join(rows[i].CollectionsArr, facetDelimiter)
	}
	return rows, nil
}

func variantFromLine(line exportLine) (models.Variant, error) {
	if line.Product == nil {
		return models.Variant{}, pkgerrors.New(pkgerrors.CodeValidation, "variant line missing product")
	}
	id, err := shopify.NumericID(line.ID)
	if err != nil {
		return models.Variant{}, err
	}
	productID, err := shopify.NumericID(line.Product.ID)
	if err != nil {
		return models.Variant{}, err
	}
	price, err := decimal.NewFromString(line.Price)
	if err != nil {
		return models.Variant{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant price")
	}
	status := enums.VariantStatus(strings.ToUpper(line.Product.Status))
	if !status.IsValid() {
		return models.Variant{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown variant status").
			WithDetails(map[string]any{"status": line.Product.Status})
	}

	row := models.Variant{
		ID:            id,
		MainProductID: productID,
		Status:        status,
		VariantTitle:  line.Title,
		DisplayName:   line.DisplayName,
		ProductTitle:  line.Product.Title,
		Price:         price,
		Availability:  line.AvailableForSale,
		TagsArr:       line.Product.Tags,
		SKU:           line.SKU,
	}
	if line.Product.ProductType != "" {
		productType := line.Product.ProductType
		row.ProductType = &productType
	}
	if line.Image != nil && line.Image.URL != "" {
		url := line.Image.URL
		row.VariantImg = &url
	}
	if line.Product.FeaturedImage != nil && line.Product.FeaturedImage.URL != "" {
		url := line.Product.FeaturedImage.URL
		row.ProductImg = &url
	}
	return row, nil
}
