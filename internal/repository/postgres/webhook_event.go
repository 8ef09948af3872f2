package postgres

import (
	"context"
	"time"

	"github.com/localpulse/localpulse/internal/domain/webhookevent"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"

	"gorm.io/gorm"
)

// processedEventRow's unique event_id index is the dedupe barrier for
// at-least-once webhook delivery.
type processedEventRow struct {
	ID          string `gorm:"primaryKey"`
	EventID     string `gorm:"uniqueIndex;not null"`
	EventType   string
	ProcessedAt time.Time
}

func (processedEventRow) TableName() string { return "processed_webhook_events" }

type webhookEventRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewWebhookEventRepository(db *gorm.DB, log *logger.Logger) webhookevent.Repository {
	return &webhookEventRepository{db: db, logger: log}
}

func (r *webhookEventRepository) Create(ctx context.Context, e *webhookevent.ProcessedEvent) error {
	row := &processedEventRow{
		ID:          e.ID,
		EventID:     e.EventID,
		EventType:   e.EventType,
		ProcessedAt: e.ProcessedAt,
	}
	err := r.db.WithContext(ctx).Create(row).Error
	if err != nil {
		return translateErr(err, "event not found", map[string]interface{}{"event_id": e.EventID})
	}
	return nil
}

func (r *webhookEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&processedEventRow{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check processed events").
			Mark(ierr.ErrDatabase)
	}
	return count > 0, nil
}
