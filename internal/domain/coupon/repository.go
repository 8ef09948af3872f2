package coupon

import "context"

// Repository persists coupons and their usage records.
type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	Update(ctx context.Context, c *Coupon) error

	// CountUsage returns the total number of redemptions of a coupon.
	CountUsage(ctx context.Context, couponID string) (int, error)

	// GetUsage returns the redemption for (coupon, identity), or a not-found
	// error when the identity has not redeemed the coupon.
	GetUsage(ctx context.Context, couponID, identityKey string) (*Usage, error)

	// CreateUsage records a redemption. The storage layer enforces the
	// (coupon_id, identity_key) uniqueness and returns an already-exists
	// error on a duplicate.
	CreateUsage(ctx context.Context, u *Usage) error
}
