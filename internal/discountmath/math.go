package discountmath

import (
	"github.com/shopspring/decimal"

	"github.com/aroma360/discounts-backend/pkg/enums"
	pkgerrors "github.com/aroma360/discounts-backend/pkg/errors"
)

// DefaultPrecision is the number of decimal places carried by price facets.
const DefaultPrecision int32 = 2

var (
	oneHundred = decimal.NewFromInt(100)
	ten        = decimal.NewFromInt(10)
)

// DiscountedPrice computes the price after applying the discount.
//
// A zero discount value yields a zero price (the item becomes free). This
// mirrors the behavior merchants already rely on for "reset" metafield
// writes, even though it reads like it should mean "no discount"; callers
// that want a no-op must not call this with a zero value.
func DiscountedPrice(price, value decimal.Decimal, kind enums.DiscountType) (decimal.Decimal, error) {
	if value.IsZero() {
		return decimal.Zero, nil
	}
	switch kind {
	case enums.DiscountTypePercentage:
		discounted := price.Sub(price.Mul(value.Div(oneHundred)))
		return Round(discounted, false, DefaultPrecision), nil
	case enums.DiscountTypeFixed:
		return price.Sub(value).Abs(), nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeInternal, "unknown discount type")
	}
}

// Round applies the price-presentation rounding policy.
//
// The digit one place past the requested precision decides the direction:
// greater than 4 rounds a charged price up so the discount is never larger
// than advertised, while a savings amount rounds down so savings are never
// overstated. Everything else rounds half away from zero.
func Round(num decimal.Decimal, savings bool, precision int32) decimal.Decimal {
	guard := num.Abs().Shift(precision + 1).Mod(ten).IntPart()
	switch {
	case guard > 4 && !savings:
		return num.RoundCeil(precision)
	case guard < 6 && savings:
		return num.RoundFloor(precision)
	default:
		return num.Round(precision)
	}
}

// PercentageFromFixedAmount converts a fixed discount into the equivalent
// percentage of the price. The caller must guard against zero prices.
func PercentageFromFixedAmount(price, fixed decimal.Decimal) (decimal.Decimal, error) {
	if price.IsZero() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "percentage undefined for zero price")
	}
	return fixed.Div(price).Mul(oneHundred).Round(DefaultPrecision), nil
}

// PercentageFacet resolves the percentage representation of a discount: a
// percentage value passes through untouched, a fixed amount is converted
// relative to the variant price.
func PercentageFacet(price, value decimal.Decimal, kind enums.DiscountType) (decimal.Decimal, error) {
	if kind == enums.DiscountTypePercentage {
		return value, nil
	}
	return PercentageFromFixedAmount(price, value)
}

// Facets bundles the four derived discount values cached per variant.
type Facets struct {
	OnetimePrice        decimal.Decimal
	OnetimePercent      decimal.Decimal
	SubscriptionPrice   decimal.Decimal
	SubscriptionPercent decimal.Decimal
}

// Spec describes one discount axis of a group definition.
type Spec struct {
	Kind  enums.DiscountType
	Value decimal.Decimal
}

// Compute derives all four facets for a variant price from the group's
// one-time and subscription specs.
func Compute(price decimal.Decimal, onetime, subscription Spec) (Facets, error) {
	onetimePrice, err := DiscountedPrice(price, onetime.Value, onetime.Kind)
	if err != nil {
		return Facets{}, err
	}
	onetimePercent, err := PercentageFacet(price, onetime.Value, onetime.Kind)
	if err != nil {
		return Facets{}, err
	}
	subPrice, err := DiscountedPrice(price, subscription.Value, subscription.Kind)
	if err != nil {
		return Facets{}, err
	}
	subPercent, err := PercentageFacet(price, subscription.Value, subscription.Kind)
	if err != nil {
		return Facets{}, err
	}
	return Facets{
		OnetimePrice:        onetimePrice,
		OnetimePercent:      onetimePercent,
		SubscriptionPrice:   subPrice,
		SubscriptionPercent: subPercent,
	}, nil
}
