package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/localpulse/localpulse/internal/api/dto"
	"github.com/localpulse/localpulse/internal/domain/subscription"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/testutil"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/stretchr/testify/suite"
)

type BillingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service   BillingService
	gateway   *testutil.FakeGateway
	locations *testutil.FakeLocationCounter
	ctx       context.Context
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.ctx = context.Background()
	s.gateway = testutil.NewFakeGateway()
	s.locations = testutil.NewFakeLocationCounter(map[string]int{
		"accounts/101": 2,
		"accounts/102": 5,
		"accounts/103": 3,
	})
	s.service = NewBillingService(ServiceParams{
		Logger:      s.GetLogger(),
		Config:      s.GetConfig(),
		SubRepo:     s.GetStores().SubscriptionRepo,
		PaymentRepo: s.GetStores().PaymentRepo,
		CouponRepo:  s.GetStores().CouponRepo,
		EventRepo:   s.GetStores().WebhookEventRepo,
		Gateway:     s.gateway,
		Locations:   s.locations,
		Cache:       s.GetCache(),
	})
}

func (s *BillingServiceSuite) identity() subscription.Identity {
	return subscription.Identity{Email: "owner@example.com", UserID: "user_1"}
}

func (s *BillingServiceSuite) TestStartTrial() {
	resp, err := s.service.StartTrial(s.ctx, s.identity(), &dto.StartTrialRequest{ProfileCount: 3})
	s.NoError(err)
	s.Equal(types.SubscriptionStatusTrial, resp.Status)
	s.Equal("owner@example.com", resp.IdentityKey)
	s.Equal(3, resp.ProfileCount)
	s.NotNil(resp.TrialEnd)

	expectedEnd := time.Now().UTC().Add(time.Duration(s.GetConfig().Billing.TrialDays) * 24 * time.Hour)
	s.WithinDuration(expectedEnd, *resp.TrialEnd, time.Minute)
}

func (s *BillingServiceSuite) TestStartTrialIdempotent() {
	first, err := s.service.StartTrial(s.ctx, s.identity(), &dto.StartTrialRequest{ProfileCount: 3})
	s.NoError(err)

	// a retry must return the same record without resetting the window
	second, err := s.service.StartTrial(s.ctx, s.identity(), &dto.StartTrialRequest{ProfileCount: 9})
	s.NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal(first.TrialEnd, second.TrialEnd)
	s.Equal(3, second.ProfileCount)
}

func (s *BillingServiceSuite) TestStartTrialConcurrent() {
	const callers = 8

	responses := make([]*dto.SubscriptionResponse, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], errs[i] = s.service.StartTrial(s.ctx, s.identity(), &dto.StartTrialRequest{ProfileCount: 2})
		}(i)
	}
	wg.Wait()

	// every caller converges on the same record
	for i := 0; i < callers; i++ {
		s.Require().NoError(errs[i])
		s.Equal(responses[0].ID, responses[i].ID)
		s.Equal(responses[0].TrialEnd, responses[i].TrialEnd)
	}

	records, err := s.GetStores().SubscriptionRepo.ListByIdentityKey(s.ctx, "owner@example.com")
	s.NoError(err)
	s.Len(records, 1)
}

func (s *BillingServiceSuite) TestStartTrialRequiresEmail() {
	_, err := s.service.StartTrial(s.ctx, subscription.Identity{UserID: "user_1"}, &dto.StartTrialRequest{})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *BillingServiceSuite) TestStartTrialDefaultsProfileCount() {
	resp, err := s.service.StartTrial(s.ctx, s.identity(), &dto.StartTrialRequest{ProfileCount: 0})
	s.NoError(err)
	s.Equal(1, resp.ProfileCount)
}

func (s *BillingServiceSuite) TestResolveIdentityFallsBackToSecondaryKeys() {
	_, err := s.service.StartTrial(s.ctx, s.identity(), &dto.StartTrialRequest{LegacyAccountID: "legacy_42"})
	s.NoError(err)

	byUser, err := s.service.ResolveIdentity(s.ctx, subscription.Identity{UserID: "user_1"})
	s.NoError(err)
	s.NotNil(byUser)

	byLegacy, err := s.service.ResolveIdentity(s.ctx, subscription.Identity{LegacyAccountID: "legacy_42"})
	s.NoError(err)
	s.NotNil(byLegacy)
	s.Equal(byUser.ID, byLegacy.ID)

	missing, err := s.service.ResolveIdentity(s.ctx, subscription.Identity{Email: "nobody@example.com"})
	s.NoError(err)
	s.Nil(missing)
}

func (s *BillingServiceSuite) TestGetStatusWithoutSubscription() {
	resp, err := s.service.GetStatus(s.ctx, s.identity())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusNone, resp.Status)
	s.False(resp.CanUsePlatform)
}

func (s *BillingServiceSuite) TestGetStatusCachesAndInvalidates() {
	_, err := s.service.StartTrial(s.ctx, s.identity(), &dto.StartTrialRequest{ProfileCount: 2})
	s.NoError(err)

	first, err := s.service.GetStatus(s.ctx, s.identity())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusTrial, first.Status)

	// served from cache even if the store becomes unavailable
	s.GetStores().SubscriptionRepo.FailWith = ierr.NewError("store down").Mark(ierr.ErrDatabase)
	cached, err := s.service.GetStatus(s.ctx, s.identity())
	s.NoError(err)
	s.Equal(first.Status, cached.Status)

	s.GetStores().SubscriptionRepo.FailWith = nil
	s.service.InvalidateStatusCache(s.ctx, "owner@example.com")
	fresh, err := s.service.GetStatus(s.ctx, s.identity())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusTrial, fresh.Status)
}

func (s *BillingServiceSuite) TestRefreshProfileCountTotalsAcrossAccounts() {
	_, err := s.service.StartTrial(s.ctx, s.identity(), &dto.StartTrialRequest{ProfileCount: 1})
	s.NoError(err)

	resp, err := s.service.RefreshProfileCount(s.ctx, s.identity(),
		[]string{"accounts/101", "accounts/102", "accounts/103"})
	s.NoError(err)
	s.Equal(10, resp.ProfileCount)
}

func (s *BillingServiceSuite) TestRefreshProfileCountMinimumOne() {
	_, err := s.service.StartTrial(s.ctx, s.identity(), &dto.StartTrialRequest{ProfileCount: 4})
	s.NoError(err)

	s.locations.Counts["accounts/empty"] = 0
	resp, err := s.service.RefreshProfileCount(s.ctx, s.identity(), []string{"accounts/empty"})
	s.NoError(err)
	s.Equal(1, resp.ProfileCount)
}

func (s *BillingServiceSuite) TestRefreshProfileCountPropagatesLookupErrors() {
	_, err := s.service.StartTrial(s.ctx, s.identity(), &dto.StartTrialRequest{ProfileCount: 4})
	s.NoError(err)

	_, err = s.service.RefreshProfileCount(s.ctx, s.identity(), []string{"accounts/unknown"})
	s.Error(err)

	// failed refresh must not clobber the stored count
	sub, err := s.service.ResolveIdentity(s.ctx, s.identity())
	s.NoError(err)
	s.Equal(4, sub.ProfileCount)
}

func (s *BillingServiceSuite) TestCancel() {
	_, err := s.service.StartTrial(s.ctx, s.identity(), &dto.StartTrialRequest{})
	s.NoError(err)

	first, err := s.service.Cancel(s.ctx, s.identity(), "user_1")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, first.Status)

	// cancelled records are excluded from live lookups, so a second cancel
	// reports not found rather than resurrecting the record
	_, err = s.service.Cancel(s.ctx, s.identity(), "user_1")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
