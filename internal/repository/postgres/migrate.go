package postgres

import (
	ierr "github.com/localpulse/localpulse/internal/errors"

	"gorm.io/gorm"
)

// Migrate creates the billing tables and the partial unique index gorm tags
// cannot express. The index is what makes concurrent StartTrial calls for
// the same identity collapse to a single record.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&subscriptionRow{},
		&paymentRow{},
		&couponRow{},
		&couponUsageRow{},
		&processedEventRow{},
	); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to migrate billing tables").
			Mark(ierr.ErrDatabase)
	}

	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_identity_live
		ON subscriptions (identity_key)
		WHERE status != 'cancelled'
	`).Error
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription identity index").
			Mark(ierr.ErrDatabase)
	}

	return nil
}
