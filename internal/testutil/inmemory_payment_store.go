package testutil

import (
	"context"
	"sort"

	"github.com/localpulse/localpulse/internal/domain/payment"
	ierr "github.com/localpulse/localpulse/internal/errors"
)

// InMemoryPaymentStore implements payment.Repository, enforcing the
// gateway_payment_id uniqueness the storage layer provides in production.
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.Payment](),
	}
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.GatewayPaymentID != "" {
		if _, err := s.GetByGatewayPaymentID(ctx, p.GatewayPaymentID); err == nil {
			return ierr.NewError("payment already recorded").
				WithReportableDetails(map[string]interface{}{"gateway_payment_id": p.GatewayPaymentID}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryPaymentStore) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*payment.Payment, error) {
	matches := s.List(ctx, func(p *payment.Payment) bool {
		return p.GatewayPaymentID == gatewayPaymentID
	})
	if len(matches) == 0 {
		return nil, ierr.NewError("payment not found").
			WithReportableDetails(map[string]interface{}{"gateway_payment_id": gatewayPaymentID}).
			Mark(ierr.ErrNotFound)
	}
	return matches[0], nil
}

func (s *InMemoryPaymentStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*payment.Payment, error) {
	payments := s.List(ctx, func(p *payment.Payment) bool {
		return p.SubscriptionID == subscriptionID
	})
	sortPaymentsNewestFirst(payments)
	return payments, nil
}

func (s *InMemoryPaymentStore) ListByIdentityKey(ctx context.Context, identityKey string) ([]*payment.Payment, error) {
	payments := s.List(ctx, func(p *payment.Payment) bool {
		return p.IdentityKey == identityKey
	})
	sortPaymentsNewestFirst(payments)
	return payments, nil
}

func sortPaymentsNewestFirst(payments []*payment.Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
}
