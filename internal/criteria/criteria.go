// Package criteria validates merchant filter conditions and normalizes them
// into storage query predicates.
package criteria

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
)

// Condition is one user-facing filter clause as submitted by the UI.
type Condition struct {
	PropertyName  string `json:"property_name" validate:"required"`
	Operator      string `json:"operator" validate:"required"`
	PropertyValue string `json:"property_value" validate:"required"`
}

// Predicate is the storage-ready form of a Condition: a column, a SQL
// operator drawn from a closed set, and the value to bind.
type Predicate struct {
	Field    string
	Operator string
	Pattern  any
}

// Clause renders the predicate as a parameterized gorm condition. Field and
// Operator only ever come from the closed maps below, so interpolating them
// is safe.
func (p Predicate) Clause() (string, any) {
	return fmt.Sprintf("%s %s ?", p.Field, p.Operator), p.Pattern
}

// Supported property names.
const (
	PropCollections  = "collections"
	PropProductType  = "product_type"
	PropTags         = "tags"
	PropProductTitle = "product_title"
	PropVariantTitle = "variant_title"
	PropPrice        = "price"
)

// User-facing operators.
const (
	OpLike       = "like"
	OpStartsWith = "starts-with"
	OpEndsWith   = "ends-with"
	OpEq         = "="
	OpNeq        = "!="
	OpGt         = ">"
	OpGte        = ">="
	OpLt         = "<"
	OpLte        = "<="
)

var patternOps = map[string]bool{
	OpLike:       true,
	OpStartsWith: true,
	OpEndsWith:   true,
}

// allowedOperators is the closed property/operator map. Array-backed
// properties only support pattern matching, price only supports comparisons.
var allowedOperators = map[string]map[string]bool{
	PropCollections: {OpLike: true, OpStartsWith: true, OpEndsWith: true},
	PropTags:        {OpLike: true, OpStartsWith: true, OpEndsWith: true},
	PropPrice:       {OpEq: true, OpNeq: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true},
	PropProductType: {
		OpEq: true, OpNeq: true,
		OpLike: true, OpStartsWith: true, OpEndsWith: true,
	},
	PropProductTitle: {
		OpEq: true, OpNeq: true,
		OpLike: true, OpStartsWith: true, OpEndsWith: true,
	},
	PropVariantTitle: {
		OpEq: true, OpNeq: true,
		OpLike: true, OpStartsWith: true, OpEndsWith: true,
	},
}

// arrayProps are stored both as text[] and as a joined search string; pattern
// operators run against the `<name>_str` variant.
var arrayProps = map[string]bool{
	PropCollections: true,
	PropTags:        true,
}

// Validate rejects any condition outside the allowed property/operator map.
// Malformed rows fail the whole set; nothing is silently dropped.
func Validate(rows []Condition) error {
	for i, row := range rows {
		ops, ok := allowedOperators[row.PropertyName]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("condition %d: unknown property %q", i, row.PropertyName))
		}
		if !ops[row.Operator] {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("condition %d: operator %q not allowed for property %q", i, row.Operator, row.PropertyName))
		}
		if strings.TrimSpace(row.PropertyValue) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("condition %d: value is required", i))
		}
		if row.PropertyName == PropPrice {
			if _, err := decimal.NewFromString(row.PropertyValue); err != nil {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("condition %d: price value %q is not numeric", i, row.PropertyValue))
			}
		}
	}
	return nil
}

// Normalizer rewrites validated conditions into predicates.
type Normalizer struct {
	// unanchored reproduces the legacy behavior where starts-with and
	// ends-with match anywhere in the string, exactly like contains.
	unanchored bool
}

// NewNormalizer builds a Normalizer. Pass unanchored=true to keep parity
// with the matching behavior existing shops were created under.
func NewNormalizer(unanchored bool) Normalizer {
	return Normalizer{unanchored: unanchored}
}

// Normalize converts one condition into its storage predicate. The condition
// must already have passed Validate.
func (n Normalizer) Normalize(c Condition) (Predicate, error) {
	if err := Validate([]Condition{c}); err != nil {
		return Predicate{}, err
	}

	if patternOps[c.Operator] {
		field := c.PropertyName
		if arrayProps[field] {
			field += "_str"
		}
		return Predicate{Field: field, Operator: "LIKE", Pattern: n.pattern(c)}, nil
	}

	if c.PropertyName == PropPrice {
		val, err := decimal.NewFromString(c.PropertyValue)
		if err != nil {
			return Predicate{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing price value")
		}
		return Predicate{Field: c.PropertyName, Operator: c.Operator, Pattern: val}, nil
	}

	return Predicate{Field: c.PropertyName, Operator: c.Operator, Pattern: c.PropertyValue}, nil
}

// NormalizeAll maps a full condition set.
func (n Normalizer) NormalizeAll(rows []Condition) ([]Predicate, error) {
	if err := Validate(rows); err != nil {
		return nil, err
	}
	preds := make([]Predicate, 0, len(rows))
	for _, row := range rows {
		p, err := n.Normalize(row)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func (n Normalizer) pattern(c Condition) string {
	if n.unanchored {
		return "%" + c.PropertyValue + "%"
	}
	switch c.Operator {
	case OpStartsWith:
		return c.PropertyValue + "%"
	case OpEndsWith:
		return "%" + c.PropertyValue
	default:
		return "%" + c.PropertyValue + "%"
	}
}
