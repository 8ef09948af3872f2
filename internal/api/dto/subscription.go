package dto

import (
	"time"

	"github.com/localpulse/localpulse/internal/domain/subscription"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/types"
)

// StartTrialRequest starts the free trial for the authenticated identity.
type StartTrialRequest struct {
	ProfileCount    int    `json:"profile_count"`
	LegacyAccountID string `json:"legacy_account_id"`
}

func (r *StartTrialRequest) Validate() error {
	if r.ProfileCount < 0 {
		return ierr.NewError("profile_count cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SubscriptionResponse is the wire shape of a subscription record.
type SubscriptionResponse struct {
	ID                string                   `json:"id"`
	IdentityKey       string                   `json:"identity_key"`
	Status            types.SubscriptionStatus `json:"status"`
	TrialStart        *time.Time               `json:"trial_start,omitempty"`
	TrialEnd          *time.Time               `json:"trial_end,omitempty"`
	SubscriptionStart *time.Time               `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time               `json:"subscription_end,omitempty"`
	ProfileCount      int                      `json:"profile_count"`
	MandateAuthorized bool                     `json:"mandate_authorized"`
	CreatedAt         time.Time                `json:"created_at"`
}

func NewSubscriptionResponse(s *subscription.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:                s.ID,
		IdentityKey:       s.IdentityKey,
		Status:            s.Status,
		TrialStart:        s.TrialStart,
		TrialEnd:          s.TrialEnd,
		SubscriptionStart: s.SubscriptionStart,
		SubscriptionEnd:   s.SubscriptionEnd,
		ProfileCount:      s.ProfileCount,
		MandateAuthorized: s.MandateAuthorized,
		CreatedAt:         s.CreatedAt,
	}
}

// SubscriptionStatusResponse is the evaluator view served to UI banners and
// attached to gated requests.
type SubscriptionStatusResponse struct {
	Status         types.SubscriptionStatus `json:"status"`
	DaysRemaining  int                      `json:"days_remaining"`
	CanUsePlatform bool                     `json:"can_use_platform"`
	BillingOnly    bool                     `json:"billing_only"`
	Message        string                   `json:"message"`
	ProfileCount   int                      `json:"profile_count"`
}

func NewSubscriptionStatusResponse(view *subscription.StatusView) *SubscriptionStatusResponse {
	return &SubscriptionStatusResponse{
		Status:         view.Status,
		DaysRemaining:  view.DaysRemaining,
		CanUsePlatform: view.CanUsePlatform,
		BillingOnly:    view.BillingOnly,
		Message:        view.Message,
		ProfileCount:   view.ProfileCount,
	}
}

// RefreshProfileCountRequest carries the full set of connected account ids;
// the server recomputes the total from scratch.
type RefreshProfileCountRequest struct {
	AccountIDs []string `json:"account_ids"`
}

func (r *RefreshProfileCountRequest) Validate() error {
	if len(r.AccountIDs) == 0 {
		return ierr.NewError("account_ids is required").
			WithHint("Provide the connected business account ids").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ReconcileResponse reports the outcome of a duplicate merge.
type ReconcileResponse struct {
	Kept    *SubscriptionResponse   `json:"kept,omitempty"`
	Removed []*SubscriptionResponse `json:"removed"`
}
