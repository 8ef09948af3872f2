package postgres

import (
	"context"
	"time"

	"github.com/localpulse/localpulse/internal/domain/payment"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// paymentRow is append-only: there are no update paths. The unique index on
// gateway_payment_id makes duplicate verify/webhook applications fail at the
// storage layer.
type paymentRow struct {
	ID             string `gorm:"primaryKey"`
	SubscriptionID string `gorm:"index;not null"`
	IdentityKey    string `gorm:"index;not null"`
	Kind           string `gorm:"not null"`
	Status         string `gorm:"not null"`

	Amount   decimal.Decimal `gorm:"type:numeric(12,2)"`
	Currency string

	GatewayOrderID   string
	GatewayPaymentID string `gorm:"uniqueIndex"`
	CouponCode       string

	CreatedAt time.Time
}

func (paymentRow) TableName() string { return "payments" }

func toPaymentRow(p *payment.Payment) *paymentRow {
	return &paymentRow{
		ID:               p.ID,
		SubscriptionID:   p.SubscriptionID,
		IdentityKey:      p.IdentityKey,
		Kind:             string(p.Kind),
		Status:           string(p.Status),
		Amount:           p.Amount,
		Currency:         p.Currency,
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		CouponCode:       p.CouponCode,
		CreatedAt:        p.CreatedAt,
	}
}

func fromPaymentRow(r *paymentRow) *payment.Payment {
	if r == nil {
		return nil
	}
	return &payment.Payment{
		ID:               r.ID,
		SubscriptionID:   r.SubscriptionID,
		IdentityKey:      r.IdentityKey,
		Kind:             types.PaymentKind(r.Kind),
		Status:           types.PaymentStatus(r.Status),
		Amount:           r.Amount,
		Currency:         r.Currency,
		GatewayOrderID:   r.GatewayOrderID,
		GatewayPaymentID: r.GatewayPaymentID,
		CouponCode:       r.CouponCode,
		CreatedAt:        r.CreatedAt,
	}
}

type paymentRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewPaymentRepository(db *gorm.DB, log *logger.Logger) payment.Repository {
	return &paymentRepository{db: db, logger: log}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Create(toPaymentRow(p)).Error
	if err != nil {
		return translateErr(err, "payment not found", map[string]interface{}{
			"gateway_payment_id": p.GatewayPaymentID,
		})
	}
	return nil
}

func (r *paymentRepository) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*payment.Payment, error) {
	var row paymentRow
	err := r.db.WithContext(ctx).
		First(&row, "gateway_payment_id = ?", gatewayPaymentID).Error
	if err != nil {
		return nil, translateErr(err, "payment not found", map[string]interface{}{
			"gateway_payment_id": gatewayPaymentID,
		})
	}
	return fromPaymentRow(&row), nil
}

func (r *paymentRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*payment.Payment, error) {
	var rows []paymentRow
	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments").
			Mark(ierr.ErrDatabase)
	}

	payments := make([]*payment.Payment, len(rows))
	for i := range rows {
		payments[i] = fromPaymentRow(&rows[i])
	}
	return payments, nil
}

func (r *paymentRepository) ListByIdentityKey(ctx context.Context, identityKey string) ([]*payment.Payment, error) {
	var rows []paymentRow
	err := r.db.WithContext(ctx).
		Where("identity_key = ?", identityKey).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments").
			Mark(ierr.ErrDatabase)
	}

	payments := make([]*payment.Payment, len(rows))
	for i := range rows {
		payments[i] = fromPaymentRow(&rows[i])
	}
	return payments, nil
}
