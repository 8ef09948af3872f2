package service

import (
	"context"
	"time"

	"github.com/localpulse/localpulse/internal/api/dto"
	"github.com/localpulse/localpulse/internal/cache"
	"github.com/localpulse/localpulse/internal/domain/subscription"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/types"
)

// BillingService owns the trial lifecycle and the status evaluation surface.
// It is the only writer of trial fields; payment fields are written by
// PaymentService on verified gateway input.
type BillingService interface {
	// ResolveIdentity finds the subscription for any of the candidate keys,
	// email first. A nil result is not an error.
	ResolveIdentity(ctx context.Context, identity subscription.Identity) (*subscription.Subscription, error)

	// GetStatus evaluates the caller's subscription as of now.
	GetStatus(ctx context.Context, identity subscription.Identity) (*dto.SubscriptionStatusResponse, error)

	// StartTrial creates the trial record for a first qualifying connection.
	// Idempotent: an existing non-cancelled record is returned unchanged.
	StartTrial(ctx context.Context, identity subscription.Identity, req *dto.StartTrialRequest) (*dto.SubscriptionResponse, error)

	// RefreshProfileCount recomputes the identity's total location count
	// across every connected account and writes it as a single update.
	RefreshProfileCount(ctx context.Context, identity subscription.Identity, accountIDs []string) (*dto.SubscriptionResponse, error)

	// Cancel moves the record to its terminal cancelled state. The record
	// then disappears from live lookups, freeing the identity to start over.
	Cancel(ctx context.Context, identity subscription.Identity, cancelledBy string) (*dto.SubscriptionResponse, error)

	// InvalidateStatusCache drops the cached status view for an identity.
	InvalidateStatusCache(ctx context.Context, identityKey string)
}

type billingService struct {
	ServiceParams
}

func NewBillingService(params ServiceParams) BillingService {
	return &billingService{ServiceParams: params}
}

func (s *billingService) ResolveIdentity(ctx context.Context, identity subscription.Identity) (*subscription.Subscription, error) {
	// Email first: it is the only key that survives reconnects and account
	// switches. Skipping it risks duplicate trials or lost updates.
	if identity.Email != "" {
		sub, err := s.SubRepo.GetByIdentityKey(ctx, identity.Email)
		if err == nil {
			return sub, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	if identity.UserID != "" {
		sub, err := s.SubRepo.GetByUserID(ctx, identity.UserID)
		if err == nil {
			return sub, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	if identity.LegacyAccountID != "" {
		sub, err := s.SubRepo.GetByLegacyAccountID(ctx, identity.LegacyAccountID)
		if err == nil {
			return sub, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	return nil, nil
}

func (s *billingService) GetStatus(ctx context.Context, identity subscription.Identity) (*dto.SubscriptionStatusResponse, error) {
	if identity.Email != "" {
		if cached, ok := s.Cache.Get(ctx, statusCacheKey(identity.Email)); ok {
			if view, ok := cache.UnmarshalCacheValue[dto.SubscriptionStatusResponse](cached); ok {
				return view, nil
			}
		}
	}

	sub, err := s.ResolveIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}

	view := subscription.Evaluate(sub, time.Now().UTC())
	resp := dto.NewSubscriptionStatusResponse(view)

	if identity.Email != "" {
		ttl := time.Duration(s.Config.Cache.TTLSeconds) * time.Second
		s.Cache.Set(ctx, statusCacheKey(identity.Email), resp, ttl)
	}

	return resp, nil
}

func (s *billingService) StartTrial(ctx context.Context, identity subscription.Identity, req *dto.StartTrialRequest) (*dto.SubscriptionResponse, error) {
	if identity.Email == "" {
		return nil, ierr.NewError("email is required to start a trial").
			Mark(ierr.ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Idempotent create: retried requests and secondary-key matches return
	// the existing record unchanged.
	existing, err := s.ResolveIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return dto.NewSubscriptionResponse(existing), nil
	}

	now := time.Now().UTC()
	trialEnd := now.Add(time.Duration(s.Config.Billing.TrialDays) * 24 * time.Hour)
	profileCount := req.ProfileCount
	if profileCount < 1 {
		profileCount = 1
	}

	sub := &subscription.Subscription{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		IdentityKey:     identity.Email,
		UserID:          identity.UserID,
		LegacyAccountID: firstNonEmpty(req.LegacyAccountID, identity.LegacyAccountID),
		Status:          types.SubscriptionStatusTrial,
		TrialStart:      &now,
		TrialEnd:        &trialEnd,
		ProfileCount:    profileCount,
		BaseModel:       types.GetDefaultBaseModel(identity.UserID),
	}

	// The storage layer resolves concurrent starts: whichever insert wins,
	// both callers get the same record back.
	record, created, err := s.SubRepo.CreateIfAbsent(ctx, sub)
	if err != nil {
		return nil, err
	}

	if created {
		s.Logger.Infow("started trial",
			"subscription_id", record.ID,
			"identity_key", record.IdentityKey,
			"trial_end", record.TrialEnd,
			"profile_count", record.ProfileCount)
	}

	s.InvalidateStatusCache(ctx, identity.Email)
	return dto.NewSubscriptionResponse(record), nil
}

func (s *billingService) RefreshProfileCount(ctx context.Context, identity subscription.Identity, accountIDs []string) (*dto.SubscriptionResponse, error) {
	sub, err := s.requireSubscription(ctx, identity)
	if err != nil {
		return nil, err
	}

	// Full recompute: accounts come and go and reconnect with different
	// counts, so an incremental model cannot self-correct.
	total := 0
	for _, accountID := range accountIDs {
		count, err := s.Locations.CountLocations(ctx, accountID)
		if err != nil {
			return nil, err
		}
		total += count
	}
	if total < 1 {
		total = 1
	}

	sub.ProfileCount = total
	sub.UpdatedBy = types.GetUserID(ctx)
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("refreshed profile count",
		"subscription_id", sub.ID,
		"identity_key", sub.IdentityKey,
		"profile_count", total,
		"accounts", len(accountIDs))

	s.InvalidateStatusCache(ctx, sub.IdentityKey)
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *billingService) Cancel(ctx context.Context, identity subscription.Identity, cancelledBy string) (*dto.SubscriptionResponse, error) {
	sub, err := s.requireSubscription(ctx, identity)
	if err != nil {
		return nil, err
	}

	if sub.IsCancelled() {
		return dto.NewSubscriptionResponse(sub), nil
	}

	now := time.Now().UTC()
	sub.Status = types.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	sub.CancelledBy = cancelledBy
	sub.UpdatedBy = cancelledBy
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("cancelled subscription",
		"subscription_id", sub.ID,
		"identity_key", sub.IdentityKey,
		"cancelled_by", cancelledBy)

	s.InvalidateStatusCache(ctx, sub.IdentityKey)
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *billingService) InvalidateStatusCache(ctx context.Context, identityKey string) {
	if identityKey != "" {
		s.Cache.Delete(ctx, statusCacheKey(identityKey))
	}
}

func (s *billingService) requireSubscription(ctx context.Context, identity subscription.Identity) (*subscription.Subscription, error) {
	sub, err := s.ResolveIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ierr.NewError("no subscription found for this account").
			WithHint("Start a trial or subscribe first").
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func statusCacheKey(identityKey string) string {
	return "billing:status:" + identityKey
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
