package subscription

import (
	"time"

	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/types"
)

// Subscription is the durable billing record for one identity. IdentityKey is
// the account owner's email and is the only stable lookup key; UserID and
// LegacyAccountID are fallback keys that may change when the user reconnects
// or switches linked business accounts.
type Subscription struct {
	ID              string                   `json:"id"`
	IdentityKey     string                   `json:"identity_key"`
	UserID          string                   `json:"user_id,omitempty"`
	LegacyAccountID string                   `json:"legacy_account_id,omitempty"`
	Status          types.SubscriptionStatus `json:"status"`

	TrialStart *time.Time `json:"trial_start,omitempty"`
	TrialEnd   *time.Time `json:"trial_end,omitempty"`

	SubscriptionStart *time.Time `json:"subscription_start,omitempty"`
	// SubscriptionEnd nil means an open-ended paid term.
	SubscriptionEnd *time.Time `json:"subscription_end,omitempty"`

	// ProfileCount is the total number of business locations this identity
	// manages across every connected account. Always written as a full
	// recomputed sum, never incremented.
	ProfileCount int `json:"profile_count"`

	GatewayCustomerID     string `json:"gateway_customer_id,omitempty"`
	GatewayOrderID        string `json:"gateway_order_id,omitempty"`
	GatewayPaymentID      string `json:"gateway_payment_id,omitempty"`
	GatewaySubscriptionID string `json:"gateway_subscription_id,omitempty"`

	MandateAuthorized bool       `json:"mandate_authorized"`
	MandateAuthDate   *time.Time `json:"mandate_auth_date,omitempty"`

	LastPaymentAt *time.Time `json:"last_payment_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy   string     `json:"cancelled_by,omitempty"`

	types.BaseModel
}

func (s *Subscription) Validate() error {
	if s.IdentityKey == "" {
		return ierr.NewError("identity_key is required").Mark(ierr.ErrValidation)
	}
	if !s.Status.Validate() {
		return ierr.NewErrorf("invalid subscription status %q", s.Status).
			Mark(ierr.ErrValidation)
	}
	if s.ProfileCount < 1 {
		return ierr.NewError("profile_count must be at least 1").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsCancelled reports whether the record is in its terminal state.
func (s *Subscription) IsCancelled() bool {
	return s.Status == types.SubscriptionStatusCancelled
}
