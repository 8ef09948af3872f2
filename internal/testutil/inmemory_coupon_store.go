package testutil

import (
	"context"

	"github.com/localpulse/localpulse/internal/domain/coupon"
	ierr "github.com/localpulse/localpulse/internal/errors"
)

// InMemoryCouponStore implements coupon.Repository with unique codes and one
// usage row per (coupon, identity).
type InMemoryCouponStore struct {
	*InMemoryStore[*coupon.Coupon]
	usages *InMemoryStore[*coupon.Usage]
}

func NewInMemoryCouponStore() *InMemoryCouponStore {
	return &InMemoryCouponStore{
		InMemoryStore: NewInMemoryStore[*coupon.Coupon](),
		usages:        NewInMemoryStore[*coupon.Usage](),
	}
}

func (s *InMemoryCouponStore) Create(ctx context.Context, c *coupon.Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := s.GetByCode(ctx, c.Code); err == nil {
		return ierr.NewError("coupon code already exists").
			WithReportableDetails(map[string]interface{}{"code": c.Code}).
			Mark(ierr.ErrAlreadyExists)
	}
	return s.InMemoryStore.Create(ctx, c.ID, c)
}

func (s *InMemoryCouponStore) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	matches := s.List(ctx, func(c *coupon.Coupon) bool {
		return c.Code == code
	})
	if len(matches) == 0 {
		return nil, ierr.NewError("coupon not found").
			WithReportableDetails(map[string]interface{}{"code": code}).
			Mark(ierr.ErrNotFound)
	}
	return matches[0], nil
}

func (s *InMemoryCouponStore) Update(ctx context.Context, c *coupon.Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.InMemoryStore.Update(ctx, c.ID, c)
}

func (s *InMemoryCouponStore) CountUsage(ctx context.Context, couponID string) (int, error) {
	return len(s.usages.List(ctx, func(u *coupon.Usage) bool {
		return u.CouponID == couponID
	})), nil
}

func (s *InMemoryCouponStore) GetUsage(ctx context.Context, couponID, identityKey string) (*coupon.Usage, error) {
	matches := s.usages.List(ctx, func(u *coupon.Usage) bool {
		return u.CouponID == couponID && u.IdentityKey == identityKey
	})
	if len(matches) == 0 {
		return nil, ierr.NewError("coupon usage not found").
			Mark(ierr.ErrNotFound)
	}
	return matches[0], nil
}

func (s *InMemoryCouponStore) CreateUsage(ctx context.Context, u *coupon.Usage) error {
	if _, err := s.GetUsage(ctx, u.CouponID, u.IdentityKey); err == nil {
		return ierr.NewError("coupon already redeemed by this identity").
			Mark(ierr.ErrAlreadyExists)
	}
	return s.usages.Create(ctx, u.ID, u)
}

func (s *InMemoryCouponStore) ClearUsages() {
	s.usages.Clear()
}
