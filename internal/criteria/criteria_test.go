package criteria

import (
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
)

func TestValidate(t *testing.T) {
	t.Run("allowsKnownCombos", func(t *testing.T) {
		rows := []Condition{
			{PropertyName: "tags", Operator: "like", PropertyValue: "sale"},
			{PropertyName: "price", Operator: ">=", PropertyValue: "10.50"},
			{PropertyName: "product_title", Operator: "=", PropertyValue: "Candle"},
		}
		if err := Validate(rows); err != nil {
			t.Fatalf("expected valid set, got %v", err)
		}
	})

	failures := []struct {
		name string
		row  Condition
	}{
		{"unknownProperty", Condition{PropertyName: "vendor", Operator: "=", PropertyValue: "x"}},
		{"comparisonOnArrayProperty", Condition{PropertyName: "tags", Operator: "=", PropertyValue: "sale"}},
		{"patternOnPrice", Condition{PropertyName: "price", Operator: "like", PropertyValue: "10"}},
		{"emptyValue", Condition{PropertyName: "tags", Operator: "like", PropertyValue: "  "}},
		{"nonNumericPrice", Condition{PropertyName: "price", Operator: "<", PropertyValue: "cheap"}},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate([]Condition{tc.row})
			if err == nil {
				t.Fatal("expected validation error")
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error code, got %v", err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(true)

	t.Run("arrayPatternRewritesField", func(t *testing.T) {
		p, err := n.Normalize(Condition{PropertyName: "tags", Operator: "like", PropertyValue: "sale"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Field != "tags_str" || p.Operator != "LIKE" || p.Pattern != "%sale%" {
			t.Fatalf("unexpected predicate: %+v", p)
		}
	})

	t.Run("collectionsUseStringVariant", func(t *testing.T) {
		p, err := n.Normalize(Condition{PropertyName: "collections", Operator: "starts-with", PropertyValue: "Summer"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Field != "collections_str" || p.Pattern != "%Summer%" {
			t.Fatalf("expected unanchored legacy pattern, got %+v", p)
		}
	})

	t.Run("scalarPatternKeepsField", func(t *testing.T) {
		p, err := n.Normalize(Condition{PropertyName: "product_title", Operator: "ends-with", PropertyValue: "Candle"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Field != "product_title" || p.Operator != "LIKE" || p.Pattern != "%Candle%" {
			t.Fatalf("unexpected predicate: %+v", p)
		}
	})

	t.Run("priceComparisonPassesThrough", func(t *testing.T) {
		p, err := n.Normalize(Condition{PropertyName: "price", Operator: "<=", PropertyValue: "19.99"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Field != "price" || p.Operator != "<=" {
			t.Fatalf("unexpected predicate: %+v", p)
		}
		val, ok := p.Pattern.(decimal.Decimal)
		if !ok || val.StringFixed(2) != "19.99" {
			t.Fatalf("expected decimal pattern, got %#v", p.Pattern)
		}
	})

	t.Run("anchoredModeAnchorsPatterns", func(t *testing.T) {
		anchored := NewNormalizer(false)
		p, err := anchored.Normalize(Condition{PropertyName: "tags", Operator: "starts-with", PropertyValue: "summer"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Pattern != "summer%" {
			t.Fatalf("expected anchored prefix pattern, got %v", p.Pattern)
		}
		p, err = anchored.Normalize(Condition{PropertyName: "tags", Operator: "ends-with", PropertyValue: "sale"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Pattern != "%sale" {
			t.Fatalf("expected anchored suffix pattern, got %v", p.Pattern)
		}
	})
}

func TestNormalizeAll(t *testing.T) {
	n := NewNormalizer(true)
	preds, err := n.NormalizeAll([]Condition{
		{PropertyName: "tags", Operator: "like", PropertyValue: "sale"},
		{PropertyName: "price", Operator: ">", PropertyValue: "5"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected 2 predicates, got %d", len(preds))
	}

	_, err = n.NormalizeAll([]Condition{
		{PropertyName: "tags", Operator: "like", PropertyValue: "sale"},
		{PropertyName: "tags", Operator: "=", PropertyValue: "bad"},
	})
	if err == nil {
		t.Fatal("expected invalid set to be rejected as a whole")
	}
}
