package pricing

import (
	"errors"

	"candlebliss-api/internal/model"
)

// ErrUnknownVariant is returned when selecting a variant that is not listed
var ErrUnknownVariant = errors.New("unknown variant")

// Selector holds the variant currently chosen for display. It starts on the
// cheapest variant and only moves to variants of the resolved list.
type Selector struct {
	variants []Variant
	mode     DiscountMode
	selected *int64
}

// NewSelector selects the cheapest of variants
func NewSelector(variants []Variant, mode DiscountMode) *Selector {
	s := &Selector{variants: variants, mode: mode}
	if len(variants) == 0 {
		return s
	}
	cheapest := variants[0]
	for _, v := range variants[1:] {
		if v.BasePrice < cheapest.BasePrice {
			cheapest = v
		}
	}
	id := cheapest.DetailID
	s.selected = &id
	return s
}

// Select switches to the variant with the given detail id
func (s *Selector) Select(detailID int64) error {
	for _, v := range s.variants {
		if v.DetailID == detailID {
			id := detailID
			s.selected = &id
			return nil
		}
	}
	return ErrUnknownVariant
}

// SelectedID returns the selected detail id, nil when there are no variants
func (s *Selector) SelectedID() *int64 {
	if s.selected == nil {
		return nil
	}
	id := *s.selected
	return &id
}

// Selected returns the selected variant
func (s *Selector) Selected() (Variant, bool) {
	if s.selected == nil {
		return Variant{}, false
	}
	for _, v := range s.variants {
		if v.DetailID == *s.selected {
			return v, true
		}
	}
	return Variant{}, false
}

// Price recomputes the display price of the selected variant
func (s *Selector) Price() model.PriceView {
	v, ok := s.Selected()
	if !ok {
		return Unavailable()
	}
	return s.mode.View(v.BasePrice, v.DiscountPrice)
}
