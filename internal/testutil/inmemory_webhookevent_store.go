package testutil

import (
	"context"

	"github.com/localpulse/localpulse/internal/domain/webhookevent"
	ierr "github.com/localpulse/localpulse/internal/errors"
)

// InMemoryWebhookEventStore implements webhookevent.Repository keyed by the
// gateway event id, mirroring the unique constraint in production storage.
type InMemoryWebhookEventStore struct {
	*InMemoryStore[*webhookevent.ProcessedEvent]
}

func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{
		InMemoryStore: NewInMemoryStore[*webhookevent.ProcessedEvent](),
	}
}

func (s *InMemoryWebhookEventStore) Create(ctx context.Context, e *webhookevent.ProcessedEvent) error {
	if exists, _ := s.Exists(ctx, e.EventID); exists {
		return ierr.NewError("event already processed").
			WithReportableDetails(map[string]interface{}{"event_id": e.EventID}).
			Mark(ierr.ErrAlreadyExists)
	}
	return s.InMemoryStore.Create(ctx, e.ID, e)
}

func (s *InMemoryWebhookEventStore) Exists(ctx context.Context, eventID string) (bool, error) {
	matches := s.List(ctx, func(e *webhookevent.ProcessedEvent) bool {
		return e.EventID == eventID
	})
	return len(matches) > 0, nil
}
