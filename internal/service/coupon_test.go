package service

import (
	"context"
	"testing"
	"time"

	"github.com/localpulse/localpulse/internal/api/dto"
	"github.com/localpulse/localpulse/internal/domain/coupon"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/testutil"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CouponServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CouponService
	ctx     context.Context
}

func TestCouponService(t *testing.T) {
	suite.Run(t, new(CouponServiceSuite))
}

func (s *CouponServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.ctx = context.Background()
	s.service = NewCouponService(ServiceParams{
		Logger:     s.GetLogger(),
		Config:     s.GetConfig(),
		CouponRepo: s.GetStores().CouponRepo,
	})
}

func (s *CouponServiceSuite) TestCreateCoupon() {
	resp, err := s.service.CreateCoupon(s.ctx, &dto.CreateCouponRequest{
		Code:       "LAUNCH25",
		PercentOff: decimal.NewFromInt(25),
		MaxUses:    100,
	})
	s.NoError(err)
	s.Equal("LAUNCH25", resp.Code)

	// duplicate codes conflict
	_, err = s.service.CreateCoupon(s.ctx, &dto.CreateCouponRequest{
		Code:       "LAUNCH25",
		PercentOff: decimal.NewFromInt(10),
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *CouponServiceSuite) TestCreateCouponRejectsInvalidPercent() {
	_, err := s.service.CreateCoupon(s.ctx, &dto.CreateCouponRequest{
		Code:       "TOOMUCH",
		PercentOff: decimal.NewFromInt(150),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *CouponServiceSuite) TestPreviewDiscount() {
	_, err := s.service.CreateCoupon(s.ctx, &dto.CreateCouponRequest{
		Code:       "HALF50",
		PercentOff: decimal.NewFromInt(50),
	})
	s.Require().NoError(err)

	discounted, err := s.service.PreviewDiscount(s.ctx, "HALF50", "owner@example.com", decimal.NewFromInt(198))
	s.NoError(err)
	s.True(discounted.Equal(decimal.NewFromInt(99)))
}

func (s *CouponServiceSuite) TestPreviewDiscountOutsideWindow() {
	past := time.Now().UTC().Add(-48 * time.Hour)
	expired := past.Add(24 * time.Hour)
	_, err := s.service.CreateCoupon(s.ctx, &dto.CreateCouponRequest{
		Code:       "GONE10",
		PercentOff: decimal.NewFromInt(10),
		ValidFrom:  &past,
		ValidTill:  &expired,
	})
	s.Require().NoError(err)

	_, err = s.service.PreviewDiscount(s.ctx, "GONE10", "owner@example.com", decimal.NewFromInt(100))
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *CouponServiceSuite) TestPreviewDiscountUsageLimit() {
	created, err := s.service.CreateCoupon(s.ctx, &dto.CreateCouponRequest{
		Code:       "CAP1",
		PercentOff: decimal.NewFromInt(10),
		MaxUses:    1,
	})
	s.Require().NoError(err)

	usage := &coupon.Usage{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COUPON_USAGE),
		CouponID:    created.ID,
		IdentityKey: "someone@example.com",
		CreatedAt:   time.Now().UTC(),
	}
	s.Require().NoError(s.GetStores().CouponRepo.CreateUsage(s.ctx, usage))

	_, err = s.service.PreviewDiscount(s.ctx, "CAP1", "owner@example.com", decimal.NewFromInt(100))
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *CouponServiceSuite) TestPreviewDiscountSingleUsePerIdentity() {
	created, err := s.service.CreateCoupon(s.ctx, &dto.CreateCouponRequest{
		Code:       "ONCE20",
		PercentOff: decimal.NewFromInt(20),
		SingleUse:  true,
	})
	s.Require().NoError(err)

	usage := &coupon.Usage{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COUPON_USAGE),
		CouponID:    created.ID,
		IdentityKey: "owner@example.com",
		CreatedAt:   time.Now().UTC(),
	}
	s.Require().NoError(s.GetStores().CouponRepo.CreateUsage(s.ctx, usage))

	// the identity that already redeemed is blocked
	_, err = s.service.PreviewDiscount(s.ctx, "ONCE20", "owner@example.com", decimal.NewFromInt(100))
	s.Error(err)
	s.True(ierr.IsValidation(err))

	// other identities are not
	discounted, err := s.service.PreviewDiscount(s.ctx, "ONCE20", "other@example.com", decimal.NewFromInt(100))
	s.NoError(err)
	s.True(discounted.Equal(decimal.NewFromInt(80)))
}
