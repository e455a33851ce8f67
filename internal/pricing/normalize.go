package pricing

import "candlebliss-api/internal/model"

// Normalize guarantees a product carries an image list. A product without
// images keeps one empty placeholder so cards always have a first image slot.
func Normalize(p model.Product) model.Product {
	if len(p.Images) == 0 {
		p.Images = model.Images{{}}
		return p
	}
	images := make(model.Images, len(p.Images))
	copy(images, p.Images)
	p.Images = images
	return p
}

// NormalizeAll normalizes every product of a listing
func NormalizeAll(products []model.Product) []model.Product {
	out := make([]model.Product, len(products))
	for i, p := range products {
		out[i] = Normalize(p)
	}
	return out
}
