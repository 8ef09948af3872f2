package subscription

import (
	"testing"
	"time"

	"github.com/localpulse/localpulse/internal/types"

	"github.com/stretchr/testify/assert"
)

func trialSub(trialEnd time.Time) *Subscription {
	start := trialEnd.Add(-15 * 24 * time.Hour)
	return &Subscription{
		ID:           "sub_test",
		IdentityKey:  "owner@example.com",
		Status:       types.SubscriptionStatusTrial,
		TrialStart:   &start,
		TrialEnd:     &trialEnd,
		ProfileCount: 3,
	}
}

func TestEvaluateNilRecord(t *testing.T) {
	view := Evaluate(nil, time.Now().UTC())

	assert.Equal(t, types.SubscriptionStatusNone, view.Status)
	assert.False(t, view.CanUsePlatform)
	assert.False(t, view.BillingOnly)
}

func TestEvaluateTrialActive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	view := Evaluate(trialSub(now.Add(5*24*time.Hour)), now)

	assert.Equal(t, types.SubscriptionStatusTrial, view.Status)
	assert.Equal(t, 5, view.DaysRemaining)
	assert.True(t, view.CanUsePlatform)
	assert.False(t, view.BillingOnly)
	assert.Equal(t, 3, view.ProfileCount)
}

func TestEvaluateTrialBoundary(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// trial ending exactly now is over
	view := Evaluate(trialSub(now), now)
	assert.Equal(t, types.SubscriptionStatusExpired, view.Status)
	assert.Equal(t, 0, view.DaysRemaining)
	assert.False(t, view.CanUsePlatform)
	assert.True(t, view.BillingOnly)

	// one second of trial left still counts as a day
	view = Evaluate(trialSub(now.Add(time.Second)), now)
	assert.Equal(t, types.SubscriptionStatusTrial, view.Status)
	assert.Equal(t, 1, view.DaysRemaining)
	assert.True(t, view.CanUsePlatform)
}

func TestEvaluateElapsedTrialDoesNotMutate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sub := trialSub(now.Add(-24 * time.Hour))

	view := Evaluate(sub, now)

	assert.Equal(t, types.SubscriptionStatusExpired, view.Status)
	// the stored record is untouched; persisting the transition is the
	// expiry sweep's job
	assert.Equal(t, types.SubscriptionStatusTrial, sub.Status)
}

func TestEvaluateActive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	end := now.Add(20 * 24 * time.Hour)
	sub := &Subscription{
		ID:              "sub_test",
		IdentityKey:     "owner@example.com",
		Status:          types.SubscriptionStatusActive,
		SubscriptionEnd: &end,
		ProfileCount:    2,
	}

	view := Evaluate(sub, now)
	assert.Equal(t, types.SubscriptionStatusActive, view.Status)
	assert.True(t, view.CanUsePlatform)

	// open-ended active subscription never lapses
	sub.SubscriptionEnd = nil
	view = Evaluate(sub, now)
	assert.True(t, view.CanUsePlatform)
}

func TestEvaluateActiveLapsed(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	end := now.Add(-time.Hour)
	sub := &Subscription{
		ID:              "sub_test",
		IdentityKey:     "owner@example.com",
		Status:          types.SubscriptionStatusActive,
		SubscriptionEnd: &end,
	}

	view := Evaluate(sub, now)
	assert.Equal(t, types.SubscriptionStatusExpired, view.Status)
	assert.False(t, view.CanUsePlatform)
	assert.True(t, view.BillingOnly)
}

func TestEvaluateCancelled(t *testing.T) {
	sub := &Subscription{
		ID:          "sub_test",
		IdentityKey: "owner@example.com",
		Status:      types.SubscriptionStatusCancelled,
	}

	view := Evaluate(sub, time.Now().UTC())
	assert.Equal(t, types.SubscriptionStatusCancelled, view.Status)
	assert.False(t, view.CanUsePlatform)
	assert.True(t, view.BillingOnly)
}
