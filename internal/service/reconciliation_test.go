package service

import (
	"context"
	"testing"
	"time"

	"github.com/localpulse/localpulse/internal/domain/subscription"
	"github.com/localpulse/localpulse/internal/testutil"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/stretchr/testify/suite"
)

type ReconciliationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service ReconciliationService
	ctx     context.Context
}

func TestReconciliationService(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceSuite))
}

func (s *ReconciliationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.ctx = context.Background()

	params := ServiceParams{
		Logger:      s.GetLogger(),
		Config:      s.GetConfig(),
		SubRepo:     s.GetStores().SubscriptionRepo,
		PaymentRepo: s.GetStores().PaymentRepo,
		CouponRepo:  s.GetStores().CouponRepo,
		EventRepo:   s.GetStores().WebhookEventRepo,
		Gateway:     testutil.NewFakeGateway(),
		Locations:   testutil.NewFakeLocationCounter(nil),
		Cache:       s.GetCache(),
	}
	s.service = NewReconciliationService(params, NewBillingService(params))
}

func (s *ReconciliationServiceSuite) addRecord(id string, status types.SubscriptionStatus, createdAt time.Time) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:           id,
		IdentityKey:  "owner@example.com",
		Status:       status,
		ProfileCount: 1,
		BaseModel:    types.BaseModel{CreatedAt: createdAt, UpdatedAt: createdAt},
	}
	if status == types.SubscriptionStatusTrial {
		end := createdAt.Add(15 * 24 * time.Hour)
		sub.TrialStart = &createdAt
		sub.TrialEnd = &end
	}
	s.Require().NoError(s.GetStores().SubscriptionRepo.InMemoryStore.Create(s.ctx, id, sub))
	return sub
}

func (s *ReconciliationServiceSuite) TestKeepsHighestPriorityRecord() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.addRecord("sub_expired", types.SubscriptionStatusExpired, base.Add(48*time.Hour))
	s.addRecord("sub_active", types.SubscriptionStatusActive, base)
	s.addRecord("sub_trial", types.SubscriptionStatusTrial, base.Add(24*time.Hour))

	resp, err := s.service.ReconcileDuplicates(s.ctx, "owner@example.com")
	s.NoError(err)
	// active wins even though it is the oldest record
	s.Equal("sub_active", resp.Kept.ID)
	s.Len(resp.Removed, 2)

	remaining, err := s.GetStores().SubscriptionRepo.ListByIdentityKey(s.ctx, "owner@example.com")
	s.NoError(err)
	s.Len(remaining, 1)
}

func (s *ReconciliationServiceSuite) TestPriorityTieBrokenByNewest() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.addRecord("sub_old_trial", types.SubscriptionStatusTrial, base)
	s.addRecord("sub_new_trial", types.SubscriptionStatusTrial, base.Add(72*time.Hour))

	resp, err := s.service.ReconcileDuplicates(s.ctx, "owner@example.com")
	s.NoError(err)
	s.Equal("sub_new_trial", resp.Kept.ID)
}

func (s *ReconciliationServiceSuite) TestSoleRecordIsNeverRemoved() {
	s.addRecord("sub_only", types.SubscriptionStatusExpired, time.Now().UTC())

	resp, err := s.service.ReconcileDuplicates(s.ctx, "owner@example.com")
	s.NoError(err)
	s.Equal("sub_only", resp.Kept.ID)
	s.Empty(resp.Removed)
}

func (s *ReconciliationServiceSuite) TestReconcileIsIdempotent() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.addRecord("sub_a", types.SubscriptionStatusTrial, base)
	s.addRecord("sub_b", types.SubscriptionStatusActive, base)

	first, err := s.service.ReconcileDuplicates(s.ctx, "owner@example.com")
	s.NoError(err)
	s.Len(first.Removed, 1)

	second, err := s.service.ReconcileDuplicates(s.ctx, "owner@example.com")
	s.NoError(err)
	s.Equal(first.Kept.ID, second.Kept.ID)
	s.Empty(second.Removed)
}

func (s *ReconciliationServiceSuite) TestReconcileAll() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.addRecord("sub_a", types.SubscriptionStatusTrial, base)
	s.addRecord("sub_b", types.SubscriptionStatusActive, base)

	other := &subscription.Subscription{
		ID:           "sub_other",
		IdentityKey:  "other@example.com",
		Status:       types.SubscriptionStatusTrial,
		ProfileCount: 1,
		BaseModel:    types.BaseModel{CreatedAt: base},
	}
	end := base.Add(15 * 24 * time.Hour)
	other.TrialStart = &base
	other.TrialEnd = &end
	s.Require().NoError(s.GetStores().SubscriptionRepo.InMemoryStore.Create(s.ctx, other.ID, other))

	merged, err := s.service.ReconcileAll(s.ctx)
	s.NoError(err)
	s.Equal(1, merged)

	// the identity without duplicates is untouched
	remaining, err := s.GetStores().SubscriptionRepo.ListByIdentityKey(s.ctx, "other@example.com")
	s.NoError(err)
	s.Len(remaining, 1)
}

func (s *ReconciliationServiceSuite) TestExpireElapsedTrials() {
	now := time.Now().UTC()
	elapsed := s.addRecord("sub_elapsed", types.SubscriptionStatusTrial, now.Add(-20*24*time.Hour))
	fresh := s.addRecord("sub_fresh", types.SubscriptionStatusTrial, now)
	fresh.IdentityKey = "fresh@example.com"

	count, err := s.service.ExpireElapsedTrials(s.ctx)
	s.NoError(err)
	s.Equal(1, count)

	expired, err := s.GetStores().SubscriptionRepo.Get(s.ctx, elapsed.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusExpired, expired.Status)

	stillTrial, err := s.GetStores().SubscriptionRepo.Get(s.ctx, fresh.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusTrial, stillTrial.Status)

	// a second sweep finds nothing
	count, err = s.service.ExpireElapsedTrials(s.ctx)
	s.NoError(err)
	s.Equal(0, count)
}
