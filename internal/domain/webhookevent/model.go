package webhookevent

import "time"

// ProcessedEvent records a gateway webhook event that has been applied.
// Payment gateways deliver events at least once; this table is the dedupe
// check consulted before any state mutation.
type ProcessedEvent struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	ProcessedAt time.Time `json:"processed_at"`
}
