package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/localpulse/localpulse/internal/domain/subscription"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository with the same
// uniqueness semantics the storage layer enforces in production.
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]

	// FailWith, when set, makes every call fail. Used to exercise the
	// fail-open behavior of the guard.
	FailWith error

	// createMu serializes CreateIfAbsent, matching the atomicity the unique
	// index and on-conflict insert give the production store.
	createMu sync.Mutex
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func (s *InMemorySubscriptionStore) CreateIfAbsent(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, bool, error) {
	if s.FailWith != nil {
		return nil, false, s.FailWith
	}
	if err := sub.Validate(); err != nil {
		return nil, false, err
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	if existing, err := s.GetByIdentityKey(ctx, sub.IdentityKey); err == nil {
		return existing, false, nil
	} else if !ierr.IsNotFound(err) {
		return nil, false, err
	}

	if err := s.InMemoryStore.Create(ctx, sub.ID, sub); err != nil {
		return nil, false, err
	}
	return sub, true, nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemorySubscriptionStore) GetByIdentityKey(ctx context.Context, identityKey string) (*subscription.Subscription, error) {
	return s.newestMatch(func(sub *subscription.Subscription) bool {
		return sub.IdentityKey == identityKey && !sub.IsCancelled()
	}, map[string]interface{}{"identity_key": identityKey})
}

func (s *InMemorySubscriptionStore) GetByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	return s.newestMatch(func(sub *subscription.Subscription) bool {
		return sub.UserID == userID && !sub.IsCancelled()
	}, map[string]interface{}{"user_id": userID})
}

func (s *InMemorySubscriptionStore) GetByLegacyAccountID(ctx context.Context, accountID string) (*subscription.Subscription, error) {
	return s.newestMatch(func(sub *subscription.Subscription) bool {
		return sub.LegacyAccountID == accountID && !sub.IsCancelled()
	}, map[string]interface{}{"legacy_account_id": accountID})
}

func (s *InMemorySubscriptionStore) GetByGatewayOrderID(ctx context.Context, orderID string) (*subscription.Subscription, error) {
	return s.newestMatch(func(sub *subscription.Subscription) bool {
		return sub.GatewayOrderID == orderID
	}, map[string]interface{}{"gateway_order_id": orderID})
}

func (s *InMemorySubscriptionStore) GetByGatewaySubscriptionID(ctx context.Context, subscriptionID string) (*subscription.Subscription, error) {
	return s.newestMatch(func(sub *subscription.Subscription) bool {
		return sub.GatewaySubscriptionID == subscriptionID
	}, map[string]interface{}{"gateway_subscription_id": subscriptionID})
}

func (s *InMemorySubscriptionStore) ListByIdentityKey(ctx context.Context, identityKey string) ([]*subscription.Subscription, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	subs := s.List(ctx, func(sub *subscription.Subscription) bool {
		return sub.IdentityKey == identityKey
	})
	sortNewestFirst(subs)
	return subs, nil
}

func (s *InMemorySubscriptionStore) ListElapsedTrials(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	return s.List(ctx, func(sub *subscription.Subscription) bool {
		return sub.Status == types.SubscriptionStatusTrial &&
			sub.TrialEnd != nil && !sub.TrialEnd.After(now)
	}), nil
}

func (s *InMemorySubscriptionStore) ListDuplicateIdentityKeys(ctx context.Context) ([]string, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	counts := make(map[string]int)
	for _, sub := range s.List(ctx, nil) {
		counts[sub.IdentityKey]++
	}
	keys := make([]string, 0)
	for key, n := range counts {
		if n > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	if err := sub.Validate(); err != nil {
		return err
	}
	sub.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) Delete(ctx context.Context, id string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	return s.InMemoryStore.Delete(ctx, id)
}

func (s *InMemorySubscriptionStore) newestMatch(match func(*subscription.Subscription) bool, details map[string]interface{}) (*subscription.Subscription, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	subs := s.List(context.Background(), match)
	if len(subs) == 0 {
		return nil, ierr.NewError("subscription not found").
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	}
	sortNewestFirst(subs)
	return subs[0], nil
}

func sortNewestFirst(subs []*subscription.Subscription) {
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
}
