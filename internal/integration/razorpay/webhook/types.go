package webhook

// Event names this service reacts to. Everything else is acknowledged and
// ignored.
const (
	EventPaymentCaptured       = "payment.captured"
	EventSubscriptionCharged   = "subscription.charged"
	EventSubscriptionCancelled = "subscription.cancelled"
)

// Event is the envelope Razorpay posts to the webhook endpoint. The event id
// used for dedupe arrives in the X-Razorpay-Event-Id header, not the body.
type Event struct {
	Entity    string  `json:"entity"`
	AccountID string  `json:"account_id"`
	Name      string  `json:"event"`
	Payload   Payload `json:"payload"`
	CreatedAt int64   `json:"created_at"`
}

type Payload struct {
	Payment      *PaymentWrapper      `json:"payment,omitempty"`
	Subscription *SubscriptionWrapper `json:"subscription,omitempty"`
}

type PaymentWrapper struct {
	Entity PaymentEntity `json:"entity"`
}

type SubscriptionWrapper struct {
	Entity SubscriptionEntity `json:"entity"`
}

type PaymentEntity struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Email    string `json:"email"`
}

type SubscriptionEntity struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
}
