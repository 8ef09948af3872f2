package types

// SubscriptionStatus is the stored lifecycle state of a subscription record.
// The evaluator may report a different view (an elapsed trial is reported as
// expired before the store catches up).
type SubscriptionStatus string

const (
	SubscriptionStatusNone      SubscriptionStatus = "none"
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Priority ranks statuses for duplicate reconciliation: paid beats trial
// beats everything else. Ties are broken by creation time by the caller.
func (s SubscriptionStatus) Priority() int {
	switch s {
	case SubscriptionStatusActive:
		return 3
	case SubscriptionStatusTrial:
		return 2
	default:
		return 1
	}
}

func (s SubscriptionStatus) Validate() bool {
	switch s {
	case SubscriptionStatusTrial, SubscriptionStatusActive,
		SubscriptionStatusExpired, SubscriptionStatusCancelled:
		return true
	}
	return false
}

// PaymentKind distinguishes regular charges from the small mandate
// authorization charge.
type PaymentKind string

const (
	PaymentKindCharge      PaymentKind = "charge"
	PaymentKindMandateAuth PaymentKind = "mandate_authorization"
)

// PaymentStatus is the terminal state of a payment history entry.
type PaymentStatus string

const (
	PaymentStatusCreated  PaymentStatus = "created"
	PaymentStatusCaptured PaymentStatus = "captured"
	PaymentStatusFailed   PaymentStatus = "failed"
)
