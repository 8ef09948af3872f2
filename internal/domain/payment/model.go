package payment

import (
	"time"

	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/shopspring/decimal"
)

// Payment is an append-only history entry for one attempted or completed
// transaction. Rows are immutable once written.
type Payment struct {
	ID             string              `json:"id"`
	SubscriptionID string              `json:"subscription_id"`
	IdentityKey    string              `json:"identity_key"`
	Kind           types.PaymentKind   `json:"kind"`
	Status         types.PaymentStatus `json:"status"`

	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`

	GatewayOrderID   string `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
	CouponCode       string `json:"coupon_code,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (p *Payment) Validate() error {
	if p.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").Mark(ierr.ErrValidation)
	}
	if p.IdentityKey == "" {
		return ierr.NewError("identity_key is required").Mark(ierr.ErrValidation)
	}
	if p.Amount.IsNegative() {
		return ierr.NewError("amount cannot be negative").Mark(ierr.ErrValidation)
	}
	return nil
}
