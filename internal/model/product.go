package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// NewBadgeWindow is how long after creation a product shows the "new" badge
const NewBadgeWindow = 7 * 24 * time.Hour

// Image is a single image record of a product or variant
type Image struct {
	ID   int64  `json:"id,omitempty"`
	Path string `json:"path"`
}

// UnmarshalJSON accepts a bare URL string or an object with path/url
func (i *Image) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var path string
		if err := json.Unmarshal(trimmed, &path); err != nil {
			return fmt.Errorf("invalid image: %w", err)
		}
		*i = Image{Path: path}
		return nil
	}

	var raw struct {
		ID   int64  `json:"id"`
		Path string `json:"path"`
		URL  string `json:"url"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("invalid image: %w", err)
	}
	*i = Image{ID: raw.ID, Path: raw.Path}
	if i.Path == "" {
		i.Path = raw.URL
	}
	return nil
}

// Images is the image list of a product. The backend returns either a single
// image record or an array; both decode into a list.
type Images []Image

// UnmarshalJSON accepts a single image, an array of images or null
func (im *Images) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*im = nil
		return nil
	}

	// If starts with '[', it's already a list
	if trimmed[0] == '[' {
		var list []Image
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("failed to parse image list: %w", err)
		}
		*im = list
		return nil
	}

	// Otherwise a single record (object or URL string)
	var single Image
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return fmt.Errorf("failed to parse image: %w", err)
	}
	*im = Images{single}
	return nil
}

// Category represents a product category
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProductDetail is a variant (size + type SKU) of a product
type ProductDetail struct {
	ID         int64  `json:"id"`
	ProductID  int64  `json:"productId"`
	Size       string `json:"size"`
	Type       string `json:"type"`
	Values     string `json:"values,omitempty"`
	Quantities int    `json:"quantities"`
	IsActive   bool   `json:"isActive"`
	Images     Images `json:"images,omitempty"`
}

// InStock reports whether the variant can be sold
func (d ProductDetail) InStock() bool {
	return d.Quantities > 0 && d.IsActive
}

// Product represents a product as returned by the backend
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Video       string          `json:"video,omitempty"`
	Images      Images          `json:"images"`
	CategoryID  *int64          `json:"categoryId,omitempty"`
	CategoryRef *int64          `json:"category_id,omitempty"` // Legacy field name
	Category    *Category       `json:"category,omitempty"`
	Categories  []Category      `json:"categories,omitempty"`
	CreatedAt   Timestamp       `json:"createdAt"`
	Details     []ProductDetail `json:"details,omitempty"`
}

// InCategory reports whether any of the category fields equals id
func (p *Product) InCategory(id int64) bool {
	if p.CategoryID != nil && *p.CategoryID == id {
		return true
	}
	if p.CategoryRef != nil && *p.CategoryRef == id {
		return true
	}
	if p.Category != nil && p.Category.ID == id {
		return true
	}
	for _, c := range p.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// IsNew reports whether the product was created within NewBadgeWindow of now
func (p *Product) IsNew(now time.Time) bool {
	if p.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(p.CreatedAt.Time) <= NewBadgeWindow
}

// PrimaryImage returns the first image path, or "" when there is none
func (p *Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.Path != "" {
			return img.Path
		}
	}
	return ""
}

// ProductDetailRef is the variant embedded in a price record. Only the id is
// guaranteed; the rest is present when the backend expands the relation.
type ProductDetailRef struct {
	ID         int64  `json:"id"`
	ProductID  *int64 `json:"productId,omitempty"`
	Size       string `json:"size,omitempty"`
	Type       string `json:"type,omitempty"`
	Quantities *int   `json:"quantities,omitempty"`
	IsActive   *bool  `json:"isActive,omitempty"`
}

// InStock reports stock for an expanded reference; unknown stock counts as out of stock
func (r ProductDetailRef) InStock() bool {
	if r.Quantities == nil || r.IsActive == nil {
		return false
	}
	return *r.Quantities > 0 && *r.IsActive
}

// Price is the price record of one variant
type Price struct {
	ID            int64            `json:"id"`
	ProductDetail ProductDetailRef `json:"product_detail"`
	BasePrice     Amount           `json:"base_price"`
	DiscountPrice *Amount          `json:"discount_price"` // Percent or amount, see DiscountMode
	StartDate     Timestamp        `json:"start_date"`
	EndDate       Timestamp        `json:"end_date"`
}

// Rating is the aggregated rating of a product
type Rating struct {
	ProductID int64   `json:"product_id"`
	Average   float64 `json:"average"`
	Count     int     `json:"count"`
}
