package coupon

import (
	"time"

	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/shopspring/decimal"
)

// Coupon is a discount code with usage caps and a validity window.
type Coupon struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	PercentOff decimal.Decimal `json:"percent_off"`
	// MaxUses 0 means unlimited redemptions overall.
	MaxUses   int        `json:"max_uses"`
	SingleUse bool       `json:"single_use"`
	ValidFrom *time.Time `json:"valid_from,omitempty"`
	ValidTill *time.Time `json:"valid_till,omitempty"`

	types.BaseModel
}

// Usage records one redemption. (CouponID, IdentityKey) is unique: one
// redemption per identity per coupon.
type Usage struct {
	ID          string    `json:"id"`
	CouponID    string    `json:"coupon_id"`
	IdentityKey string    `json:"identity_key"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *Coupon) Validate() error {
	if c.Code == "" {
		return ierr.NewError("code is required").Mark(ierr.ErrValidation)
	}
	if c.PercentOff.LessThanOrEqual(decimal.Zero) || c.PercentOff.GreaterThan(decimal.NewFromInt(100)) {
		return ierr.NewError("percent_off must be between 0 and 100").
			Mark(ierr.ErrValidation)
	}
	if c.MaxUses < 0 {
		return ierr.NewError("max_uses cannot be negative").Mark(ierr.ErrValidation)
	}
	return nil
}

// IsWithinWindow reports whether the coupon is valid at the given time.
func (c *Coupon) IsWithinWindow(now time.Time) bool {
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidTill != nil && now.After(*c.ValidTill) {
		return false
	}
	return true
}

// Discount applies the coupon to an amount.
func (c *Coupon) Discount(amount decimal.Decimal) decimal.Decimal {
	discount := amount.Mul(c.PercentOff).Div(decimal.NewFromInt(100))
	return amount.Sub(discount).Round(2)
}
