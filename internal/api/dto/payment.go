package dto

import (
	"time"

	"github.com/localpulse/localpulse/internal/domain/payment"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest asks for a gateway order covering one monthly term for
// the identity's profiles. The amount is always computed server-side from
// the stored profile count; clients never supply it.
type CreateOrderRequest struct {
	CouponCode string `json:"coupon_code"`
}

func (r *CreateOrderRequest) Validate() error {
	return nil
}

type CreateOrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

// VerifyPaymentRequest is the checkout callback triple. CouponCode repeats
// the code used at order creation so redemption is recorded only after a
// verified payment.
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
	CouponCode        string `json:"coupon_code"`
}

func (r *VerifyPaymentRequest) Validate() error {
	if r.RazorpayOrderID == "" || r.RazorpayPaymentID == "" || r.RazorpaySignature == "" {
		return ierr.NewError("order id, payment id and signature are required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type SetupMandateResponse struct {
	CustomerID        string `json:"customer_id"`
	AlreadyAuthorized bool   `json:"already_authorized"`
}

type VerifyMandateRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
	CustomerID        string `json:"customer_id" binding:"required"`
}

func (r *VerifyMandateRequest) Validate() error {
	if r.RazorpayOrderID == "" || r.RazorpayPaymentID == "" || r.RazorpaySignature == "" {
		return ierr.NewError("order id, payment id and signature are required").
			Mark(ierr.ErrValidation)
	}
	if r.CustomerID == "" {
		return ierr.NewError("customer_id is required").Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentResponse is one payment history entry.
type PaymentResponse struct {
	ID               string              `json:"id"`
	Kind             types.PaymentKind   `json:"kind"`
	Status           types.PaymentStatus `json:"status"`
	Amount           decimal.Decimal     `json:"amount"`
	Currency         string              `json:"currency"`
	GatewayOrderID   string              `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string              `json:"gateway_payment_id,omitempty"`
	CouponCode       string              `json:"coupon_code,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

func NewPaymentResponse(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:               p.ID,
		Kind:             p.Kind,
		Status:           p.Status,
		Amount:           p.Amount,
		Currency:         p.Currency,
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		CouponCode:       p.CouponCode,
		CreatedAt:        p.CreatedAt,
	}
}

func NewPaymentListResponse(payments []*payment.Payment) []*PaymentResponse {
	return lo.Map(payments, func(p *payment.Payment, _ int) *PaymentResponse {
		return NewPaymentResponse(p)
	})
}
