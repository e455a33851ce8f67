package pricing

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountMode says how the discount_price field of a price or gift is read
type DiscountMode string

const (
	ModePercent DiscountMode = "percent" // discount_price is percent off (0-100)
	ModeAmount  DiscountMode = "amount"  // discount_price is đồng off
)

// ParseDiscountMode parses a configured mode, defaulting to percent
func ParseDiscountMode(s string) (DiscountMode, error) {
	switch DiscountMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePercent:
		return ModePercent, nil
	case ModeAmount:
		return ModeAmount, nil
	default:
		return "", fmt.Errorf("unknown discount mode %q", s)
	}
}

// Percent converts a raw discount_price value into percent off base.
// Returns nil when there is no discount.
func (m DiscountMode) Percent(base float64, raw *float64) *float64 {
	if raw == nil || math.IsNaN(*raw) || *raw == 0 {
		return nil
	}
	if m != ModeAmount {
		pct := *raw
		return &pct
	}
	if base <= 0 || math.IsNaN(base) || math.IsInf(base, 0) {
		return nil
	}
	pct, _ := decimal.NewFromFloat(*raw).
		Div(decimal.NewFromFloat(base)).
		Mul(decimal.NewFromInt(100)).
		Float64()
	return &pct
}

// Discount is the outcome of applying a percent discount to a base price
type Discount struct {
	BasePrice       float64
	EffectivePrice  float64
	HasDiscount     bool
	DiscountPercent *float64
}

// Calculate applies discountPercent to base. The effective price is rounded
// to whole đồng and never exceeds base. Negative or non-finite bases are
// clamped to zero; percents outside 0-100 are clamped into range.
func Calculate(base float64, discountPercent *float64) Discount {
	if math.IsNaN(base) || math.IsInf(base, 0) || base < 0 {
		log.Printf("[Pricing] Invalid base price %v, using 0", base)
		base = 0
	}

	result := Discount{BasePrice: base, EffectivePrice: base}
	if discountPercent == nil || math.IsNaN(*discountPercent) || *discountPercent == 0 {
		return result
	}

	pct := *discountPercent
	if math.IsInf(pct, 0) || pct < 0 || pct > 100 {
		clamped := math.Max(0, math.Min(100, pct))
		log.Printf("[Pricing] Discount %v%% out of range, using %v%%", pct, clamped)
		pct = clamped
		if pct == 0 {
			return result
		}
	}

	b := decimal.NewFromFloat(base)
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100)))
	effective := b.Mul(factor).Round(0)
	if effective.GreaterThan(b) {
		effective = b.Floor()
	}

	result.EffectivePrice = effective.InexactFloat64()
	result.HasDiscount = true
	result.DiscountPercent = &pct
	return result
}
