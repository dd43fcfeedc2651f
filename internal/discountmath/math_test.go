package discountmath

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/aroma360/discounts-backend/pkg/enums"

	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestDiscountedPrice(t *testing.T) {
	t.Run("zeroValueMeansFree", func(t *testing.T) {
		got, err := DiscountedPrice(dec(t, "19.99"), decimal.Zero, enums.DiscountTypePercentage)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.IsZero() {
			t.Fatalf("expected zero price for zero discount value, got %s", got)
		}
	})

	t.Run("percentage", func(t *testing.T) {
		got, err := DiscountedPrice(dec(t, "100"), dec(t, "25"), enums.DiscountTypePercentage)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.StringFixed(2) != "75.00" {
			t.Fatalf("expected 75.00, got %s", got.StringFixed(2))
		}
	})

	t.Run("percentageRoundsUp", func(t *testing.T) {
		// 19.99 - 15% = 16.9915, guard digit 1 rounds half away.
		got, err := DiscountedPrice(dec(t, "19.99"), dec(t, "15"), enums.DiscountTypePercentage)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.StringFixed(2) != "16.99" {
			t.Fatalf("expected 16.99, got %s", got.StringFixed(2))
		}
	})

	t.Run("fixedIsAbsolute", func(t *testing.T) {
		got, err := DiscountedPrice(dec(t, "10.00"), dec(t, "12.50"), enums.DiscountTypeFixed)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.StringFixed(2) != "2.50" {
			t.Fatalf("expected 2.50, got %s", got.StringFixed(2))
		}
	})

	t.Run("unknownKind", func(t *testing.T) {
		_, err := DiscountedPrice(dec(t, "10.00"), dec(t, "1"), enums.DiscountType("OTHER"))
		if err == nil {
			t.Fatal("expected error for unknown kind")
		}
	})
}

func TestRound(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		savings bool
		want    string
	}{
		{"chargedRoundsUpOnFive", "19.995", false, "20.00"},
		{"savingsRoundsDownOnFive", "19.995", true, "19.99"},
		{"belowGuardHalfRounds", "19.994", false, "19.99"},
		{"savingsBelowGuardFloors", "19.994", true, "19.99"},
		{"savingsAboveGuardHalfRounds", "19.996", true, "20.00"},
		{"exactValueUntouched", "19.99", false, "19.99"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Round(dec(t, tc.in), tc.savings, 2).StringFixed(2)
			if got != tc.want {
				t.Fatalf("Round(%s, savings=%v) = %s, want %s", tc.in, tc.savings, got, tc.want)
			}
		})
	}
}

func TestPercentageFromFixedAmount(t *testing.T) {
	got, err := PercentageFromFixedAmount(dec(t, "100"), dec(t, "25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StringFixed(2) != "25.00" {
		t.Fatalf("expected 25.00, got %s", got.StringFixed(2))
	}

	_, err = PercentageFromFixedAmount(decimal.Zero, dec(t, "5"))
	if err == nil {
		t.Fatal("expected error for zero price")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error code, got %v", err)
	}
}

func TestCompute(t *testing.T) {
	facets, err := Compute(dec(t, "100"),
		Spec{Kind: enums.DiscountTypePercentage, Value: dec(t, "10")},
		Spec{Kind: enums.DiscountTypeFixed, Value: dec(t, "25")},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if facets.OnetimePrice.StringFixed(2) != "90.00" {
		t.Fatalf("onetime price: got %s", facets.OnetimePrice.StringFixed(2))
	}
	if facets.OnetimePercent.StringFixed(2) != "10.00" {
		t.Fatalf("onetime percent: got %s", facets.OnetimePercent.StringFixed(2))
	}
	if facets.SubscriptionPrice.StringFixed(2) != "75.00" {
		t.Fatalf("subscription price: got %s", facets.SubscriptionPrice.StringFixed(2))
	}
	if facets.SubscriptionPercent.StringFixed(2) != "25.00" {
		t.Fatalf("subscription percent: got %s", facets.SubscriptionPercent.StringFixed(2))
	}
}
