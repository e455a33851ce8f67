package pricing

import (
	"time"

	"candlebliss-api/internal/model"
)

// View builds the display price from a base price and a raw discount_price
func (m DiscountMode) View(base float64, rawDiscount *float64) model.PriceView {
	d := Calculate(base, m.Percent(base, rawDiscount))
	view := model.PriceView{
		Base:          d.BasePrice,
		Effective:     d.EffectivePrice,
		BaseText:      FormatVND(d.BasePrice),
		EffectiveText: FormatVND(d.EffectivePrice),
		HasDiscount:   d.HasDiscount,
		Available:     d.BasePrice > 0,
	}
	if d.HasDiscount {
		view.DiscountPercent = d.DiscountPercent
		view.Badge = DiscountBadge(d.DiscountPercent)
	}
	return view
}

// Unavailable is the display price of a product with no resolvable price
func Unavailable() model.PriceView {
	return model.PriceView{
		BaseText:      FormatVND(0),
		EffectiveText: FormatVND(0),
		Available:     false,
	}
}

// Pipeline runs the price resolution steps over fetched products and prices:
// normalize, filter by category, join prices, apply discounts.
type Pipeline struct {
	Mode   DiscountMode
	Filter FilterOptions
}

// NewPipeline creates a Pipeline
func NewPipeline(mode DiscountMode, filter FilterOptions) *Pipeline {
	if mode == "" {
		mode = ModePercent
	}
	return &Pipeline{Mode: mode, Filter: filter}
}

// Page resolves a product listing. A nil categoryID lists every product.
// limit <= 0 means no limit.
func (pl *Pipeline) Page(products []model.Product, prices []model.Price, categoryID *int64, limit int, now time.Time) model.CatalogPage {
	selected, page := pl.Select(products, categoryID, limit)
	pl.Fill(&page, selected, prices, now)
	return page
}

// Select normalizes and filters products, returning them with the page
// header (tier and degraded flag) but no items yet
func (pl *Pipeline) Select(products []model.Product, categoryID *int64, limit int) ([]model.Product, model.CatalogPage) {
	products = NormalizeAll(products)

	page := model.CatalogPage{CategoryID: categoryID, Tier: string(TierNone), Items: []model.ProductCard{}}
	if categoryID != nil {
		res := FilterByCategory(products, *categoryID, pl.Filter)
		products = res.Products
		page.Tier = string(res.Tier)
		page.Degraded = res.Degraded
	} else if len(products) > 0 {
		page.Tier = string(TierAll)
	}

	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, page
}

// Fill prices the selected products into page items, keeping their order
func (pl *Pipeline) Fill(page *model.CatalogPage, products []model.Product, prices []model.Price, now time.Time) {
	page.Items = make([]model.ProductCard, 0, len(products))
	for _, p := range products {
		page.Items = append(page.Items, pl.Card(p, prices, now))
	}
	page.Total = len(page.Items)
}

// Card resolves the card of a single product, priced at its cheapest variant
func (pl *Pipeline) Card(p model.Product, prices []model.Price, now time.Time) model.ProductCard {
	p = Normalize(p)
	joined := Join(p, prices)
	return pl.card(p, joined, now)
}

func (pl *Pipeline) card(p model.Product, joined JoinResult, now time.Time) model.ProductCard {
	card := model.ProductCard{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Image:        p.PrimaryImage(),
		IsNew:        p.IsNew(now),
		InStock:      joined.InStock(),
		VariantCount: len(joined.Variants),
		Price:        Unavailable(),
		JoinTier:     string(joined.Tier),
	}
	if v, ok := joined.Default(); ok {
		card.Price = pl.Mode.View(v.BasePrice, v.DiscountPrice)
	}
	return card
}

// Detail resolves a product page with every variant. variantID selects a
// variant other than the cheapest; an unlisted id returns ErrUnknownVariant.
func (pl *Pipeline) Detail(p model.Product, prices []model.Price, variantID *int64, now time.Time) (model.ProductDetailView, error) {
	p = Normalize(p)
	joined := Join(p, prices)

	selector := NewSelector(joined.Variants, pl.Mode)
	if variantID != nil {
		if err := selector.Select(*variantID); err != nil {
			return model.ProductDetailView{}, err
		}
	}

	view := model.ProductDetailView{
		ProductCard:       pl.card(p, joined, now),
		Video:             p.Video,
		Category:          p.Category,
		Variants:          make([]model.VariantView, 0, len(joined.Variants)),
		SelectedVariantID: selector.SelectedID(),
		DroppedVariants:   joined.Dropped,
	}
	view.Price = selector.Price()

	view.Images = make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.Path != "" {
			view.Images = append(view.Images, img.Path)
		}
	}

	for _, v := range joined.Variants {
		view.Variants = append(view.Variants, model.VariantView{
			DetailID:    v.DetailID,
			Size:        v.Size,
			Type:        v.Type,
			InStock:     v.InStock,
			Speculative: v.Speculative,
			Price:       pl.Mode.View(v.BasePrice, v.DiscountPrice),
		})
	}
	return view, nil
}

// Gift resolves a gift with its status at now. Constituent products are
// looked up by id in products; missing ids are kept with Found=false.
func (pl *Pipeline) Gift(g model.Gift, products map[int64]model.Product, now time.Time) model.GiftView {
	status := g.Status(now)
	view := model.GiftView{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Price:       pl.Mode.View(g.BasePrice.Float64(), model.AmountPtr(g.DiscountPrice)),
		Status:      status,
		StatusLabel: status.Label(),
		StartDate:   g.StartDate,
		EndDate:     g.EndDate,
		Products:    make([]model.GiftProduct, 0, len(g.Products)),
	}
	for _, img := range g.Images {
		if img.Path != "" {
			view.Image = img.Path
			break
		}
	}
	for _, id := range g.Products {
		item := model.GiftProduct{ID: id}
		if p, ok := products[id]; ok {
			item.Name = p.Name
			item.Image = p.PrimaryImage()
			item.Found = true
		}
		view.Products = append(view.Products, item)
	}
	return view
}
