package webhookevent

import "context"

// Repository persists the processed-event ledger.
type Repository interface {
	// Create records an event as processed. The storage layer enforces
	// event_id uniqueness and returns an already-exists error on a duplicate
	// delivery, which callers treat as "skip, already applied".
	Create(ctx context.Context, e *ProcessedEvent) error

	Exists(ctx context.Context, eventID string) (bool, error)
}
