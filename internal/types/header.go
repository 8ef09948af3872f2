package types

const (
	HeaderRequestID      = "X-Request-ID"
	HeaderAuthorization  = "Authorization"
	HeaderBillingAccount = "X-Billing-Account"

	// Response headers set by the subscription guard on gated requests.
	HeaderSubscriptionStatus = "X-Subscription-Status"
	HeaderTrialDaysRemaining = "X-Trial-Days-Remaining"
	HeaderBillingOnly        = "X-Billing-Only"

	// Razorpay webhook headers.
	HeaderRazorpaySignature = "X-Razorpay-Signature"
	HeaderRazorpayEventID   = "X-Razorpay-Event-Id"
)
