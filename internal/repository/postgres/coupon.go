package postgres

import (
	"context"
	"time"

	"github.com/localpulse/localpulse/internal/domain/coupon"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type couponRow struct {
	ID         string          `gorm:"primaryKey"`
	Code       string          `gorm:"uniqueIndex;not null"`
	PercentOff decimal.Decimal `gorm:"type:numeric(5,2)"`
	MaxUses    int
	SingleUse  bool
	ValidFrom  *time.Time
	ValidTill  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string
}

func (couponRow) TableName() string { return "coupons" }

// couponUsageRow enforces one redemption per identity per coupon through its
// composite unique index.
type couponUsageRow struct {
	ID          string `gorm:"primaryKey"`
	CouponID    string `gorm:"uniqueIndex:idx_coupon_identity;not null"`
	IdentityKey string `gorm:"uniqueIndex:idx_coupon_identity;not null"`
	CreatedAt   time.Time
}

func (couponUsageRow) TableName() string { return "coupon_usages" }

func toCouponRow(c *coupon.Coupon) *couponRow {
	return &couponRow{
		ID:         c.ID,
		Code:       c.Code,
		PercentOff: c.PercentOff,
		MaxUses:    c.MaxUses,
		SingleUse:  c.SingleUse,
		ValidFrom:  c.ValidFrom,
		ValidTill:  c.ValidTill,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		CreatedBy:  c.CreatedBy,
		UpdatedBy:  c.UpdatedBy,
	}
}

func fromCouponRow(r *couponRow) *coupon.Coupon {
	if r == nil {
		return nil
	}
	return &coupon.Coupon{
		ID:         r.ID,
		Code:       r.Code,
		PercentOff: r.PercentOff,
		MaxUses:    r.MaxUses,
		SingleUse:  r.SingleUse,
		ValidFrom:  r.ValidFrom,
		ValidTill:  r.ValidTill,
		BaseModel: types.BaseModel{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
			CreatedBy: r.CreatedBy,
			UpdatedBy: r.UpdatedBy,
		},
	}
}

type couponRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewCouponRepository(db *gorm.DB, log *logger.Logger) coupon.Repository {
	return &couponRepository{db: db, logger: log}
}

func (r *couponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Create(toCouponRow(c)).Error
	if err != nil {
		return translateErr(err, "coupon not found", map[string]interface{}{"code": c.Code})
	}
	return nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	var row couponRow
	err := r.db.WithContext(ctx).First(&row, "code = ?", code).Error
	if err != nil {
		return nil, translateErr(err, "coupon not found", map[string]interface{}{"code": code})
	}
	return fromCouponRow(&row), nil
}

func (r *couponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).Save(toCouponRow(c)).Error
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update coupon").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *couponRepository) CountUsage(ctx context.Context, couponID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&couponUsageRow{}).
		Where("coupon_id = ?", couponID).
		Count(&count).Error
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count coupon usage").
			Mark(ierr.ErrDatabase)
	}
	return int(count), nil
}

func (r *couponRepository) GetUsage(ctx context.Context, couponID, identityKey string) (*coupon.Usage, error) {
	var row couponUsageRow
	err := r.db.WithContext(ctx).
		First(&row, "coupon_id = ? AND identity_key = ?", couponID, identityKey).Error
	if err != nil {
		return nil, translateErr(err, "coupon usage not found", map[string]interface{}{
			"coupon_id":    couponID,
			"identity_key": identityKey,
		})
	}
	return &coupon.Usage{
		ID:          row.ID,
		CouponID:    row.CouponID,
		IdentityKey: row.IdentityKey,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func (r *couponRepository) CreateUsage(ctx context.Context, u *coupon.Usage) error {
	row := &couponUsageRow{
		ID:          u.ID,
		CouponID:    u.CouponID,
		IdentityKey: u.IdentityKey,
		CreatedAt:   u.CreatedAt,
	}
	err := r.db.WithContext(ctx).Create(row).Error
	if err != nil {
		return translateErr(err, "coupon usage not found", map[string]interface{}{
			"coupon_id":    u.CouponID,
			"identity_key": u.IdentityKey,
		})
	}
	return nil
}
