package subscription

import (
	"math"
	"time"

	"github.com/localpulse/localpulse/internal/types"
)

// StatusView is the evaluator's read-only view of a subscription at a point
// in time. It is what the guard middleware and the status API serve.
type StatusView struct {
	Status         types.SubscriptionStatus `json:"status"`
	DaysRemaining  int                      `json:"days_remaining"`
	CanUsePlatform bool                     `json:"can_use_platform"`
	BillingOnly    bool                     `json:"billing_only"`
	Message        string                   `json:"message"`
	ProfileCount   int                      `json:"profile_count,omitempty"`
}

const (
	msgNoSubscription = "No subscription found for this account."
	msgActive         = "Subscription is active."
	msgTrial          = "Trial is active."
	msgTrialExpired   = "Your trial has ended. Subscribe to continue using the platform."
	msgExpired        = "Your subscription has expired. Renew to continue using the platform."
	msgCancelled      = "Your subscription was cancelled. Subscribe again to continue."
)

// Evaluate computes the current status view for a record. It is pure: it
// never mutates the record, and persisting a trial-to-expired transition is
// an explicit write performed by callers that observed the view.
func Evaluate(sub *Subscription, now time.Time) *StatusView {
	if sub == nil {
		return &StatusView{
			Status:         types.SubscriptionStatusNone,
			CanUsePlatform: false,
			BillingOnly:    false,
			Message:        msgNoSubscription,
		}
	}

	view := &StatusView{ProfileCount: sub.ProfileCount}

	switch sub.Status {
	case types.SubscriptionStatusActive:
		if sub.SubscriptionEnd == nil || !now.After(*sub.SubscriptionEnd) {
			view.Status = types.SubscriptionStatusActive
			view.CanUsePlatform = true
			view.Message = msgActive
			return view
		}
		// paid term lapsed with no renewal
		view.Status = types.SubscriptionStatusExpired
		view.BillingOnly = true
		view.Message = msgExpired
		return view

	case types.SubscriptionStatusTrial:
		days := 0
		if sub.TrialEnd != nil {
			days = daysUntil(*sub.TrialEnd, now)
		}
		if days > 0 {
			view.Status = types.SubscriptionStatusTrial
			view.DaysRemaining = days
			view.CanUsePlatform = true
			view.Message = msgTrial
			return view
		}
		// The stored record may still say trial; the view reports expired
		// until a sweep persists the transition.
		view.Status = types.SubscriptionStatusExpired
		view.BillingOnly = true
		view.Message = msgTrialExpired
		return view

	case types.SubscriptionStatusCancelled:
		view.Status = types.SubscriptionStatusCancelled
		view.BillingOnly = true
		view.Message = msgCancelled
		return view

	default:
		view.Status = types.SubscriptionStatusExpired
		view.BillingOnly = true
		view.Message = msgExpired
		return view
	}
}

// daysUntil returns ceil((end-now)/24h), never negative. end == now is 0.
func daysUntil(end, now time.Time) int {
	remaining := end.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}
