package service

import (
	"context"
	"sort"
	"time"

	"github.com/localpulse/localpulse/internal/api/dto"
	"github.com/localpulse/localpulse/internal/domain/subscription"
	"github.com/localpulse/localpulse/internal/types"
)

// ReconciliationService repairs records that pre-date the unique identity
// constraint and sweeps elapsed trials into their persisted expired state.
type ReconciliationService interface {
	// ReconcileDuplicates collapses multiple records for one identity down to
	// the single most valuable one. Running it twice is a no-op.
	ReconcileDuplicates(ctx context.Context, identityKey string) (*dto.ReconcileResponse, error)

	// ReconcileAll runs ReconcileDuplicates for every identity that owns
	// more than one record. Used by the scheduled sweep.
	ReconcileAll(ctx context.Context) (int, error)

	// ExpireElapsedTrials persists trial records whose trial window has
	// elapsed as expired and returns how many were updated.
	ExpireElapsedTrials(ctx context.Context) (int, error)
}

type reconciliationService struct {
	ServiceParams
	billing BillingService
}

func NewReconciliationService(params ServiceParams, billing BillingService) ReconciliationService {
	return &reconciliationService{ServiceParams: params, billing: billing}
}

func (s *reconciliationService) ReconcileDuplicates(ctx context.Context, identityKey string) (*dto.ReconcileResponse, error) {
	subs, err := s.SubRepo.ListByIdentityKey(ctx, identityKey)
	if err != nil {
		return nil, err
	}

	// A sole record is never touched, whatever its status.
	if len(subs) <= 1 {
		resp := &dto.ReconcileResponse{Removed: []*dto.SubscriptionResponse{}}
		if len(subs) == 1 {
			resp.Kept = dto.NewSubscriptionResponse(subs[0])
		}
		return resp, nil
	}

	// Most valuable record wins: status priority first, then the newest.
	sort.SliceStable(subs, func(i, j int) bool {
		pi, pj := subs[i].Status.Priority(), subs[j].Status.Priority()
		if pi != pj {
			return pi > pj
		}
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})

	keep := subs[0]
	removed := make([]*dto.SubscriptionResponse, 0, len(subs)-1)
	for _, dup := range subs[1:] {
		if err := s.SubRepo.Delete(ctx, dup.ID); err != nil {
			return nil, err
		}
		removed = append(removed, dto.NewSubscriptionResponse(dup))
	}

	s.Logger.Infow("reconciled duplicate subscriptions",
		"identity_key", identityKey,
		"kept", keep.ID,
		"kept_status", keep.Status,
		"removed", len(removed))

	s.billing.InvalidateStatusCache(ctx, identityKey)
	return &dto.ReconcileResponse{Kept: dto.NewSubscriptionResponse(keep), Removed: removed}, nil
}

func (s *reconciliationService) ReconcileAll(ctx context.Context) (int, error) {
	keys, err := s.SubRepo.ListDuplicateIdentityKeys(ctx)
	if err != nil {
		return 0, err
	}

	merged := 0
	for _, key := range keys {
		if _, err := s.ReconcileDuplicates(ctx, key); err != nil {
			s.Logger.Errorw("failed to reconcile identity",
				"identity_key", key,
				"error", err)
			continue
		}
		merged++
	}
	return merged, nil
}

func (s *reconciliationService) ExpireElapsedTrials(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	elapsed, err := s.SubRepo.ListElapsedTrials(ctx, now)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, sub := range elapsed {
		if !s.trialElapsed(sub, now) {
			continue
		}
		sub.Status = types.SubscriptionStatusExpired
		if err := s.SubRepo.Update(ctx, sub); err != nil {
			s.Logger.Errorw("could not expire elapsed trial",
				"subscription_id", sub.ID,
				"identity_key", sub.IdentityKey,
				"error", err)
			continue
		}
		s.billing.InvalidateStatusCache(ctx, sub.IdentityKey)
		updated++
	}

	if updated > 0 {
		s.Logger.Infow("expired elapsed trials", "count", updated)
	}
	return updated, nil
}

func (s *reconciliationService) trialElapsed(sub *subscription.Subscription, now time.Time) bool {
	return sub.Status == types.SubscriptionStatusTrial &&
		sub.TrialEnd != nil && !sub.TrialEnd.After(now)
}
