package service

import (
	"context"
	"time"

	"github.com/localpulse/localpulse/internal/api/dto"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/shopspring/decimal"
)

// CouponService manages discount codes and previews their effect on the
// identity's next charge. Redemption itself is recorded by PaymentService
// after a verified payment.
type CouponService interface {
	CreateCoupon(ctx context.Context, req *dto.CreateCouponRequest) (*dto.CouponResponse, error)
	GetCoupon(ctx context.Context, code string) (*dto.CouponResponse, error)

	// PreviewDiscount validates the coupon for the identity and returns the
	// amount it would pay, without recording a redemption.
	PreviewDiscount(ctx context.Context, code, identityKey string, amount decimal.Decimal) (decimal.Decimal, error)
}

type couponService struct {
	ServiceParams
}

func NewCouponService(params ServiceParams) CouponService {
	return &couponService{ServiceParams: params}
}

func (s *couponService) CreateCoupon(ctx context.Context, req *dto.CreateCouponRequest) (*dto.CouponResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid coupon payload").
			Mark(ierr.ErrValidation)
	}

	c := req.ToCoupon(types.GetUserID(ctx))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.ValidFrom != nil && c.ValidTill != nil && c.ValidTill.Before(*c.ValidFrom) {
		return nil, ierr.NewError("valid_till cannot precede valid_from").
			Mark(ierr.ErrValidation)
	}

	if err := s.CouponRepo.Create(ctx, c); err != nil {
		if ierr.IsAlreadyExists(err) {
			return nil, ierr.WithError(err).
				WithHint("A coupon with this code already exists").
				WithReportableDetails(map[string]interface{}{"code": c.Code}).
				Mark(ierr.ErrAlreadyExists)
		}
		return nil, err
	}

	s.Logger.Infow("created coupon",
		"coupon_id", c.ID,
		"code", c.Code,
		"percent_off", c.PercentOff)

	return dto.NewCouponResponse(c), nil
}

func (s *couponService) GetCoupon(ctx context.Context, code string) (*dto.CouponResponse, error) {
	c, err := s.CouponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return dto.NewCouponResponse(c), nil
}

func (s *couponService) PreviewDiscount(ctx context.Context, code, identityKey string, amount decimal.Decimal) (decimal.Decimal, error) {
	c, err := s.CouponRepo.GetByCode(ctx, code)
	if err != nil {
		return amount, err
	}

	now := time.Now().UTC()
	if !c.IsWithinWindow(now) {
		return amount, ierr.NewError("coupon is not valid at this time").
			WithHint("The coupon is outside its validity window").
			Mark(ierr.ErrValidation)
	}

	if c.MaxUses > 0 {
		used, err := s.CouponRepo.CountUsage(ctx, c.ID)
		if err != nil {
			return amount, err
		}
		if used >= c.MaxUses {
			return amount, ierr.NewError("coupon usage limit reached").
				Mark(ierr.ErrValidation)
		}
	}

	if c.SingleUse && identityKey != "" {
		if _, err := s.CouponRepo.GetUsage(ctx, c.ID, identityKey); err == nil {
			return amount, ierr.NewError("coupon already redeemed by this account").
				Mark(ierr.ErrValidation)
		} else if !ierr.IsNotFound(err) {
			return amount, err
		}
	}

	return c.Discount(amount), nil
}
