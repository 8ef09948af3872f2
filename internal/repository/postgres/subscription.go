package postgres

import (
	"context"
	"time"

	"github.com/localpulse/localpulse/internal/domain/subscription"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// subscriptionRow is the storage shape of a subscription record. The partial
// unique index on identity_key (created in Migrate) enforces the one
// non-cancelled record per identity invariant at the storage layer.
type subscriptionRow struct {
	ID              string `gorm:"primaryKey"`
	IdentityKey     string `gorm:"index;not null"`
	UserID          string `gorm:"index"`
	LegacyAccountID string `gorm:"index"`
	Status          string `gorm:"index;not null"`

	TrialStart        *time.Time
	TrialEnd          *time.Time
	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time

	ProfileCount int `gorm:"not null;default:1"`

	GatewayCustomerID     string
	GatewayOrderID        string
	GatewayPaymentID      string
	GatewaySubscriptionID string

	MandateAuthorized bool
	MandateAuthDate   *time.Time

	LastPaymentAt *time.Time
	CancelledAt   *time.Time
	CancelledBy   string

	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string
}

func (subscriptionRow) TableName() string { return "subscriptions" }

func toSubscriptionRow(s *subscription.Subscription) *subscriptionRow {
	return &subscriptionRow{
		ID:                    s.ID,
		IdentityKey:           s.IdentityKey,
		UserID:                s.UserID,
		LegacyAccountID:       s.LegacyAccountID,
		Status:                string(s.Status),
		TrialStart:            s.TrialStart,
		TrialEnd:              s.TrialEnd,
		SubscriptionStart:     s.SubscriptionStart,
		SubscriptionEnd:       s.SubscriptionEnd,
		ProfileCount:          s.ProfileCount,
		GatewayCustomerID:     s.GatewayCustomerID,
		GatewayOrderID:        s.GatewayOrderID,
		GatewayPaymentID:      s.GatewayPaymentID,
		GatewaySubscriptionID: s.GatewaySubscriptionID,
		MandateAuthorized:     s.MandateAuthorized,
		MandateAuthDate:       s.MandateAuthDate,
		LastPaymentAt:         s.LastPaymentAt,
		CancelledAt:           s.CancelledAt,
		CancelledBy:           s.CancelledBy,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
		CreatedBy:             s.CreatedBy,
		UpdatedBy:             s.UpdatedBy,
	}
}

func fromSubscriptionRow(r *subscriptionRow) *subscription.Subscription {
	if r == nil {
		return nil
	}
	return &subscription.Subscription{
		ID:                    r.ID,
		IdentityKey:           r.IdentityKey,
		UserID:                r.UserID,
		LegacyAccountID:       r.LegacyAccountID,
		Status:                types.SubscriptionStatus(r.Status),
		TrialStart:            r.TrialStart,
		TrialEnd:              r.TrialEnd,
		SubscriptionStart:     r.SubscriptionStart,
		SubscriptionEnd:       r.SubscriptionEnd,
		ProfileCount:          r.ProfileCount,
		GatewayCustomerID:     r.GatewayCustomerID,
		GatewayOrderID:        r.GatewayOrderID,
		GatewayPaymentID:      r.GatewayPaymentID,
		GatewaySubscriptionID: r.GatewaySubscriptionID,
		MandateAuthorized:     r.MandateAuthorized,
		MandateAuthDate:       r.MandateAuthDate,
		LastPaymentAt:         r.LastPaymentAt,
		CancelledAt:           r.CancelledAt,
		CancelledBy:           r.CancelledBy,
		BaseModel: types.BaseModel{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
			CreatedBy: r.CreatedBy,
			UpdatedBy: r.UpdatedBy,
		},
	}
}

type subscriptionRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *gorm.DB, log *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: log}
}

func (r *subscriptionRepository) CreateIfAbsent(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, bool, error) {
	if err := sub.Validate(); err != nil {
		return nil, false, err
	}

	row := toSubscriptionRow(sub)
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return nil, false, ierr.WithError(res.Error).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}

	if res.RowsAffected == 0 {
		// lost the race or record already present, return the winner
		existing, err := r.GetByIdentityKey(ctx, sub.IdentityKey)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	return fromSubscriptionRow(row), true, nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	var row subscriptionRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err, "subscription not found", map[string]interface{}{"id": id})
	}
	return fromSubscriptionRow(&row), nil
}

func (r *subscriptionRepository) GetByIdentityKey(ctx context.Context, identityKey string) (*subscription.Subscription, error) {
	var row subscriptionRow
	err := r.db.WithContext(ctx).
		Where("identity_key = ? AND status != ?", identityKey, string(types.SubscriptionStatusCancelled)).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, translateErr(err, "subscription not found", map[string]interface{}{"identity_key": identityKey})
	}
	return fromSubscriptionRow(&row), nil
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	var row subscriptionRow
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status != ?", userID, string(types.SubscriptionStatusCancelled)).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, translateErr(err, "subscription not found", map[string]interface{}{"user_id": userID})
	}
	return fromSubscriptionRow(&row), nil
}

func (r *subscriptionRepository) GetByLegacyAccountID(ctx context.Context, accountID string) (*subscription.Subscription, error) {
	var row subscriptionRow
	err := r.db.WithContext(ctx).
		Where("legacy_account_id = ? AND status != ?", accountID, string(types.SubscriptionStatusCancelled)).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, translateErr(err, "subscription not found", map[string]interface{}{"legacy_account_id": accountID})
	}
	return fromSubscriptionRow(&row), nil
}

func (r *subscriptionRepository) GetByGatewayOrderID(ctx context.Context, orderID string) (*subscription.Subscription, error) {
	var row subscriptionRow
	err := r.db.WithContext(ctx).
		Where("gateway_order_id = ?", orderID).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, translateErr(err, "subscription not found", map[string]interface{}{"gateway_order_id": orderID})
	}
	return fromSubscriptionRow(&row), nil
}

func (r *subscriptionRepository) GetByGatewaySubscriptionID(ctx context.Context, subscriptionID string) (*subscription.Subscription, error) {
	var row subscriptionRow
	err := r.db.WithContext(ctx).
		Where("gateway_subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, translateErr(err, "subscription not found", map[string]interface{}{"gateway_subscription_id": subscriptionID})
	}
	return fromSubscriptionRow(&row), nil
}

func (r *subscriptionRepository) ListByIdentityKey(ctx context.Context, identityKey string) ([]*subscription.Subscription, error) {
	var rows []subscriptionRow
	err := r.db.WithContext(ctx).
		Where("identity_key = ?", identityKey).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}

	subs := make([]*subscription.Subscription, len(rows))
	for i := range rows {
		subs[i] = fromSubscriptionRow(&rows[i])
	}
	return subs, nil
}

func (r *subscriptionRepository) ListElapsedTrials(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	var rows []subscriptionRow
	err := r.db.WithContext(ctx).
		Where("status = ? AND trial_end IS NOT NULL AND trial_end <= ?", string(types.SubscriptionStatusTrial), now).
		Find(&rows).Error
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list elapsed trials").
			Mark(ierr.ErrDatabase)
	}

	subs := make([]*subscription.Subscription, len(rows))
	for i := range rows {
		subs[i] = fromSubscriptionRow(&rows[i])
	}
	return subs, nil
}

func (r *subscriptionRepository) ListDuplicateIdentityKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&subscriptionRow{}).
		Select("identity_key").
		Group("identity_key").
		Having("COUNT(*) > 1").
		Pluck("identity_key", &keys).Error
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list duplicate identity keys").
			Mark(ierr.ErrDatabase)
	}
	return keys, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	sub.UpdatedAt = time.Now().UTC()
	row := toSubscriptionRow(sub)
	err := r.db.WithContext(ctx).Save(row).Error
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			WithReportableDetails(map[string]interface{}{"id": sub.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Delete(&subscriptionRow{}, "id = ?", id).Error
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete subscription").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}
