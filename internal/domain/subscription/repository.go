package subscription

import (
	"context"
	"time"
)

// Repository defines persistence for subscription records. Only the billing
// services write through it; duplicate deletion is reserved for
// reconciliation.
type Repository interface {
	// CreateIfAbsent inserts the record unless a non-cancelled record already
	// exists for the same identity key, in which case the existing record is
	// returned with created=false. The uniqueness must be enforced at the
	// storage layer so concurrent trial starts cannot race.
	CreateIfAbsent(ctx context.Context, sub *Subscription) (existing *Subscription, created bool, err error)

	Get(ctx context.Context, id string) (*Subscription, error)

	// GetByIdentityKey returns the newest non-cancelled record for an email.
	GetByIdentityKey(ctx context.Context, identityKey string) (*Subscription, error)
	GetByUserID(ctx context.Context, userID string) (*Subscription, error)
	GetByLegacyAccountID(ctx context.Context, accountID string) (*Subscription, error)

	// Gateway-keyed lookups used by webhook processing, where the only
	// reference available is the order or mandate subscription id.
	GetByGatewayOrderID(ctx context.Context, orderID string) (*Subscription, error)
	GetByGatewaySubscriptionID(ctx context.Context, subscriptionID string) (*Subscription, error)

	// ListByIdentityKey returns every record for an email, including
	// cancelled ones, newest first. Used by reconciliation.
	ListByIdentityKey(ctx context.Context, identityKey string) ([]*Subscription, error)

	// ListElapsedTrials returns trial records whose trial end has passed.
	ListElapsedTrials(ctx context.Context, now time.Time) ([]*Subscription, error)

	// ListDuplicateIdentityKeys returns identity keys that own more than one
	// record. Used by the reconciliation sweep.
	ListDuplicateIdentityKeys(ctx context.Context) ([]string, error)

	Update(ctx context.Context, sub *Subscription) error

	// Delete removes a record. Reserved for duplicate reconciliation; normal
	// cancellation is a status transition.
	Delete(ctx context.Context, id string) error
}
