package payment

import "context"

// Repository persists the append-only payment history. There is no update or
// delete: history entries are immutable.
type Repository interface {
	Create(ctx context.Context, p *Payment) error

	// GetByGatewayPaymentID is the idempotency check for verify/webhook
	// paths: a hit means the payment was already applied.
	GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*Payment, error)

	ListBySubscription(ctx context.Context, subscriptionID string) ([]*Payment, error)
	ListByIdentityKey(ctx context.Context, identityKey string) ([]*Payment, error)
}
