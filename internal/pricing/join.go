package pricing

import (
	"log"
	"sort"

	"candlebliss-api/internal/model"
)

// JoinTier is the strategy that associated prices with a product
type JoinTier string

const (
	JoinNone        JoinTier = "none"        // No price resolved
	JoinDirect      JoinTier = "direct"      // product_detail.productId matched
	JoinByDetail    JoinTier = "detail"      // product_detail.id matched a listed variant
	JoinSpeculative JoinTier = "speculative" // Legacy id arithmetic, best effort only
)

// speculativeOffsets is how far past the product id the legacy join looks
const speculativeOffsets = 4

// Variant is a product variant resolved against its price record
type Variant struct {
	DetailID      int64
	Size          string
	Type          string
	BasePrice     float64
	DiscountPrice *float64
	InStock       bool
	Speculative   bool
}

// JoinResult holds the resolved variants sorted ascending by base price
type JoinResult struct {
	Variants []Variant
	Tier     JoinTier
	Dropped  []int64 // Listed variants without a price
}

// Default returns the cheapest variant
func (r JoinResult) Default() (Variant, bool) {
	if len(r.Variants) == 0 {
		return Variant{}, false
	}
	return r.Variants[0], true
}

// InStock reports whether any resolved variant can be sold
func (r JoinResult) InStock() bool {
	for _, v := range r.Variants {
		if v.InStock {
			return true
		}
	}
	return false
}

// Join associates the variants of a product with their prices
func Join(p model.Product, prices []model.Price) JoinResult {
	details := make(map[int64]model.ProductDetail, len(p.Details))
	for _, d := range p.Details {
		details[d.ID] = d
	}

	// Tier 1: prices that name the product directly
	var direct []Variant
	seen := make(map[int64]bool)
	for _, pr := range prices {
		ref := pr.ProductDetail
		if ref.ProductID == nil || *ref.ProductID != p.ID || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		direct = append(direct, variantFromPrice(pr, details))
	}
	if len(direct) > 0 {
		return finish(direct, JoinDirect, nil)
	}

	byDetail := indexByDetail(prices)

	// Tier 2: resolve each listed variant by its id
	if len(p.Details) > 0 {
		var variants []Variant
		var dropped []int64
		for _, d := range p.Details {
			pr, ok := byDetail[d.ID]
			if !ok {
				log.Printf("[Pricing] Product %d variant %d has no price, dropped", p.ID, d.ID)
				dropped = append(dropped, d.ID)
				continue
			}
			variants = append(variants, variantFromPrice(pr, details))
		}
		return finish(variants, JoinByDetail, dropped)
	}

	// Tier 3: legacy records without details or product ids
	var speculative []Variant
	for _, id := range speculativeIDs(p.ID) {
		pr, ok := byDetail[id]
		if !ok {
			continue
		}
		// A price known to belong to another product is never borrowed
		if pr.ProductDetail.ProductID != nil && *pr.ProductDetail.ProductID != p.ID {
			continue
		}
		v := variantFromPrice(pr, details)
		v.Speculative = true
		speculative = append(speculative, v)
	}
	if len(speculative) > 0 {
		log.Printf("[Pricing] Product %d resolved %d price(s) by id guess", p.ID, len(speculative))
	}
	return finish(speculative, JoinSpeculative, nil)
}

// speculativeIDs lists the candidate detail ids for a legacy product:
// id, id*2, id*3 and id+1 to id+4, without duplicates.
func speculativeIDs(productID int64) []int64 {
	candidates := []int64{productID, productID * 2, productID * 3}
	for i := int64(1); i <= speculativeOffsets; i++ {
		candidates = append(candidates, productID+i)
	}

	seen := make(map[int64]bool, len(candidates))
	out := make([]int64, 0, len(candidates))
	for _, id := range candidates {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// indexByDetail maps product_detail.id to its first price record
func indexByDetail(prices []model.Price) map[int64]model.Price {
	out := make(map[int64]model.Price, len(prices))
	for _, pr := range prices {
		if _, ok := out[pr.ProductDetail.ID]; !ok {
			out[pr.ProductDetail.ID] = pr
		}
	}
	return out
}

func variantFromPrice(pr model.Price, details map[int64]model.ProductDetail) Variant {
	ref := pr.ProductDetail
	v := Variant{
		DetailID:      ref.ID,
		Size:          ref.Size,
		Type:          ref.Type,
		BasePrice:     pr.BasePrice.Float64(),
		DiscountPrice: model.AmountPtr(pr.DiscountPrice),
		InStock:       ref.InStock(),
	}
	if d, ok := details[ref.ID]; ok {
		v.Size = d.Size
		v.Type = d.Type
		v.InStock = d.InStock()
	}
	return v
}

func finish(variants []Variant, tier JoinTier, dropped []int64) JoinResult {
	if len(variants) == 0 {
		return JoinResult{Variants: []Variant{}, Tier: JoinNone, Dropped: dropped}
	}
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].BasePrice < variants[j].BasePrice
	})
	return JoinResult{Variants: variants, Tier: tier, Dropped: dropped}
}
