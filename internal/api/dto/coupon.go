package dto

import (
	"time"

	"github.com/localpulse/localpulse/internal/domain/coupon"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type CreateCouponRequest struct {
	Code       string          `json:"code" validate:"required,alphanum,min=3,max=32"`
	PercentOff decimal.Decimal `json:"percent_off" validate:"required"`
	MaxUses    int             `json:"max_uses" validate:"gte=0"`
	SingleUse  bool            `json:"single_use"`
	ValidFrom  *time.Time      `json:"valid_from"`
	ValidTill  *time.Time      `json:"valid_till"`
}

func (r *CreateCouponRequest) Validate() error {
	return validate.Struct(r)
}

func (r *CreateCouponRequest) ToCoupon(userID string) *coupon.Coupon {
	return &coupon.Coupon{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COUPON),
		Code:       r.Code,
		PercentOff: r.PercentOff,
		MaxUses:    r.MaxUses,
		SingleUse:  r.SingleUse,
		ValidFrom:  r.ValidFrom,
		ValidTill:  r.ValidTill,
		BaseModel:  types.GetDefaultBaseModel(userID),
	}
}

type CouponResponse struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	PercentOff decimal.Decimal `json:"percent_off"`
	MaxUses    int             `json:"max_uses"`
	SingleUse  bool            `json:"single_use"`
	ValidFrom  *time.Time      `json:"valid_from,omitempty"`
	ValidTill  *time.Time      `json:"valid_till,omitempty"`
}

func NewCouponResponse(c *coupon.Coupon) *CouponResponse {
	return &CouponResponse{
		ID:         c.ID,
		Code:       c.Code,
		PercentOff: c.PercentOff,
		MaxUses:    c.MaxUses,
		SingleUse:  c.SingleUse,
		ValidFrom:  c.ValidFrom,
		ValidTill:  c.ValidTill,
	}
}
