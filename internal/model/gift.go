package model

import "time"

// Gift is a bundle of products sold at its own price
type Gift struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	BasePrice     Amount    `json:"base_price"`
	DiscountPrice *Amount   `json:"discount_price"` // Percent, see DiscountMode
	Products      IDList    `json:"products"`       // Weak reference by product id
	Images        Images    `json:"images,omitempty"`
	StartDate     Timestamp `json:"start_date"`
	EndDate       Timestamp `json:"end_date"`
	IsActive      *bool     `json:"isActive,omitempty"` // Absent on older records
}

// Status derives the gift state at now. Same precedence as vouchers without
// the usage check; a gift without an active flag is never cancelled.
func (g *Gift) Status(now time.Time) Status {
	if g.IsActive != nil && !*g.IsActive {
		return StatusCancelled
	}
	if !g.StartDate.IsZero() && now.Before(g.StartDate.Time) {
		return StatusNotStarted
	}
	if !g.EndDate.IsZero() && now.After(g.EndDate.Time) {
		return StatusExpired
	}
	return StatusActive
}
