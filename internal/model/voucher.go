package model

import "time"

// Status is the derived lifecycle state of a voucher or gift. It is never
// stored; callers recompute it from the current time on every request.
type Status string

const (
	StatusCancelled  Status = "cancelled"   // Inactive flag set
	StatusNotStarted Status = "not_started" // Before start date
	StatusExpired    Status = "expired"     // After end date
	StatusExhausted  Status = "exhausted"   // Usage limit reached (vouchers only)
	StatusActive     Status = "active"
)

var statusLabels = map[Status]string{
	StatusCancelled:  "Đã hủy",
	StatusNotStarted: "Chưa bắt đầu",
	StatusExpired:    "Hết hạn",
	StatusExhausted:  "Đã dùng hết",
	StatusActive:     "Còn hiệu lực",
}

// Label returns the Vietnamese label shown in the storefront
func (s Status) Label() string {
	return statusLabels[s]
}

// Voucher represents a discount code managed by the seller
type Voucher struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	Description   string    `json:"description,omitempty"`
	PercentOff    *Amount   `json:"percent_off,omitempty"`
	AmountOff     *Amount   `json:"amount_off,omitempty"`
	MinOrderValue Amount    `json:"min_order_value"`
	UsageLimit    *int      `json:"usage_limit"` // nil = unlimited
	UsageCount    int       `json:"usage_count"`
	StartDate     Timestamp `json:"start_date"`
	EndDate       Timestamp `json:"end_date"`
	IsActive      *bool     `json:"isActive,omitempty"` // Absent on older records
}

// Status derives the voucher state at now. The order of the checks is the
// precedence: the first matching state wins. Only an explicit inactive flag
// cancels a voucher.
func (v *Voucher) Status(now time.Time) Status {
	if v.IsActive != nil && !*v.IsActive {
		return StatusCancelled
	}

	// Check date range
	if !v.StartDate.IsZero() && now.Before(v.StartDate.Time) {
		return StatusNotStarted
	}
	if !v.EndDate.IsZero() && now.After(v.EndDate.Time) {
		return StatusExpired
	}

	// Check usage limit
	if v.UsageLimit != nil && v.UsageCount >= *v.UsageLimit {
		return StatusExhausted
	}

	return StatusActive
}

// RemainingUses returns how many uses are left, nil when unlimited
func (v *Voucher) RemainingUses() *int {
	if v.UsageLimit == nil {
		return nil
	}
	remaining := *v.UsageLimit - v.UsageCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// ToView derives the voucher status at now
func (v *Voucher) ToView(now time.Time) VoucherView {
	status := v.Status(now)
	return VoucherView{
		Voucher:       *v,
		Status:        status,
		StatusLabel:   status.Label(),
		RemainingUses: v.RemainingUses(),
	}
}

// VoucherRequest is the create/update payload for vouchers. Exactly one of
// PercentOff and AmountOff must be set.
type VoucherRequest struct {
	Code          string   `json:"code" validate:"required,vouchercode"`
	Description   string   `json:"description,omitempty" validate:"max=255"`
	PercentOff    *float64 `json:"percent_off,omitempty" validate:"omitempty,gt=0,lte=100"`
	AmountOff     *float64 `json:"amount_off,omitempty" validate:"omitempty,gt=0"`
	MinOrderValue float64  `json:"min_order_value" validate:"gte=0"`
	UsageLimit    *int     `json:"usage_limit,omitempty" validate:"omitempty,gte=1"`
	StartDate     string   `json:"start_date" validate:"required"`
	EndDate       string   `json:"end_date" validate:"required"`
	IsActive      *bool    `json:"isActive,omitempty"`
}

// VoucherStatusRequest toggles the active flag of a voucher
type VoucherStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
