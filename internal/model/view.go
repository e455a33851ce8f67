package model

// PriceView is the display price of a product, variant or gift
type PriceView struct {
	Base            float64  `json:"base"`
	Effective       float64  `json:"effective"`        // Rounded to whole đồng
	BaseText        string   `json:"base_text"`        // "100,000đ"
	EffectiveText   string   `json:"effective_text"`   // "80,000đ"
	HasDiscount     bool     `json:"has_discount"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	Badge           string   `json:"badge,omitempty"` // "-20%"
	Available       bool     `json:"available"`       // false = price unavailable, not free
}

// VariantView is a resolved variant with its display price
type VariantView struct {
	DetailID    int64     `json:"detail_id"`
	Size        string    `json:"size,omitempty"`
	Type        string    `json:"type,omitempty"`
	InStock     bool      `json:"in_stock"`
	Speculative bool      `json:"speculative,omitempty"`
	Price       PriceView `json:"price"`
}

// ProductCard is the response format for product grids and carousels
type ProductCard struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Image        string    `json:"image"`
	IsNew        bool      `json:"is_new"`
	InStock      bool      `json:"in_stock"`
	VariantCount int       `json:"variant_count"`
	Price        PriceView `json:"price"`
	JoinTier     string    `json:"join_tier,omitempty"`
	Rating       *Rating   `json:"rating,omitempty"`
}

// ProductDetailView is the response format for a single product page
type ProductDetailView struct {
	ProductCard
	Video             string        `json:"video,omitempty"`
	Images            []string      `json:"images"`
	Category          *Category     `json:"category,omitempty"`
	Variants          []VariantView `json:"variants"`
	SelectedVariantID *int64        `json:"selected_variant_id"`
	DroppedVariants   []int64       `json:"dropped_variants,omitempty"`
}

// CatalogPage is a filtered product listing. Degraded is set when the
// category had no match and unrelated fallback products are shown.
type CatalogPage struct {
	Items      []ProductCard `json:"items"`
	Total      int           `json:"total"`
	CategoryID *int64        `json:"category_id,omitempty"`
	Tier       string        `json:"tier"`
	Degraded   bool          `json:"degraded"`
}

// VoucherView is a voucher with its derived status
type VoucherView struct {
	Voucher
	Status        Status `json:"status"`
	StatusLabel   string `json:"status_label"`
	RemainingUses *int   `json:"remaining_uses"`
}

// GiftProduct is a constituent product of a gift, resolved by id
type GiftProduct struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
	Found bool   `json:"found"`
}

// GiftView is a gift with its derived status and display price
type GiftView struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Image       string        `json:"image"`
	Price       PriceView     `json:"price"`
	Status      Status        `json:"status"`
	StatusLabel string        `json:"status_label"`
	StartDate   Timestamp     `json:"start_date"`
	EndDate     Timestamp     `json:"end_date"`
	Products    []GiftProduct `json:"products"`
}
