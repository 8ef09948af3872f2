package service

import (
	"context"
	"time"

	"github.com/localpulse/localpulse/internal/api/dto"
	"github.com/localpulse/localpulse/internal/domain/coupon"
	"github.com/localpulse/localpulse/internal/domain/payment"
	"github.com/localpulse/localpulse/internal/domain/subscription"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/shopspring/decimal"
)

// paidTermDays is the length of one paid term. Renewals extend it via the
// gateway's subscription.charged webhook.
const paidTermDays = 30

// PaymentService drives order creation, signature verification and mandate
// authorization against Razorpay. Verified gateway input is the only path by
// which a subscription becomes active or a mandate becomes authorized.
type PaymentService interface {
	CreateOrder(ctx context.Context, identity subscription.Identity, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, identity subscription.Identity, req *dto.VerifyPaymentRequest) (*dto.SubscriptionResponse, error)

	SetupMandate(ctx context.Context, identity subscription.Identity) (*dto.SetupMandateResponse, error)
	CreateAuthorizationOrder(ctx context.Context, identity subscription.Identity) (*dto.CreateOrderResponse, error)
	VerifyMandate(ctx context.Context, identity subscription.Identity, req *dto.VerifyMandateRequest) (*dto.SubscriptionResponse, error)

	ListPayments(ctx context.Context, identity subscription.Identity) ([]*dto.PaymentResponse, error)

	// Webhook applications. Delivery is at-least-once and unordered relative
	// to the interactive verify calls, so each is an idempotent upsert keyed
	// by the gateway payment id.
	ApplyCapturedPayment(ctx context.Context, gatewayPaymentID, gatewayOrderID string, amount int64, currency string) error
	ApplySubscriptionCharged(ctx context.Context, gatewaySubscriptionID, gatewayPaymentID string, amount int64, currency string) error
	ApplySubscriptionCancelled(ctx context.Context, gatewaySubscriptionID string) error
}

type paymentService struct {
	ServiceParams
	billing BillingService
	coupons CouponService
}

func NewPaymentService(params ServiceParams, billing BillingService, coupons CouponService) PaymentService {
	return &paymentService{ServiceParams: params, billing: billing, coupons: coupons}
}

func (s *paymentService) CreateOrder(ctx context.Context, identity subscription.Identity, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.requireSubscription(ctx, identity)
	if err != nil {
		return nil, err
	}

	amount := s.Config.Billing.PricePerProfile.Mul(decimal.NewFromInt(int64(sub.ProfileCount)))
	if req.CouponCode != "" {
		amount, err = s.coupons.PreviewDiscount(ctx, req.CouponCode, sub.IdentityKey, amount)
		if err != nil {
			return nil, err
		}
	}

	order, err := s.Gateway.CreateOrder(ctx, toPaise(amount), s.Config.Razorpay.Currency, sub.ID, map[string]interface{}{
		"identity_key":  sub.IdentityKey,
		"profile_count": sub.ProfileCount,
	})
	if err != nil {
		return nil, err
	}

	// Store the order reference only; status does not change until the
	// payment is verified.
	sub.GatewayOrderID = order.ID
	sub.UpdatedBy = types.GetUserID(ctx)
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	return &dto.CreateOrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    s.Config.Razorpay.KeyID,
	}, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, identity subscription.Identity, req *dto.VerifyPaymentRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Fail closed: without a valid signature nothing is activated and nothing
	// is returned, not even for a payment id that was already applied.
	if !s.Gateway.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		s.Logger.Warnw("payment signature verification failed",
			"order_id", req.RazorpayOrderID,
			"payment_id", req.RazorpayPaymentID)
		return nil, ierr.NewError("payment signature verification failed").
			WithHint("The payment could not be verified").
			Mark(ierr.ErrSignatureInvalid)
	}

	// Duplicate verify calls (client retry, webhook already applied) are a
	// no-op: return the current record without a second history entry.
	if existing, err := s.PaymentRepo.GetByGatewayPaymentID(ctx, req.RazorpayPaymentID); err == nil && existing != nil {
		sub, err := s.SubRepo.Get(ctx, existing.SubscriptionID)
		if err != nil {
			return nil, err
		}
		return dto.NewSubscriptionResponse(sub), nil
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	sub, err := s.findSubscriptionForOrder(ctx, req.RazorpayOrderID, identity)
	if err != nil {
		return nil, err
	}
	if sub.IsCancelled() {
		return nil, ierr.NewError("subscription has been cancelled").
			WithHint("Start a new trial or subscription before paying").
			Mark(ierr.ErrValidation)
	}

	amount, currency := s.paymentAmount(ctx, req.RazorpayPaymentID, sub)
	if err := s.activate(ctx, sub, req.RazorpayOrderID, req.RazorpayPaymentID, amount, currency, req.CouponCode); err != nil {
		return nil, err
	}

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *paymentService) SetupMandate(ctx context.Context, identity subscription.Identity) (*dto.SetupMandateResponse, error) {
	sub, err := s.requireSubscription(ctx, identity)
	if err != nil {
		return nil, err
	}

	// Idempotent: an authorized mandate is never re-created or re-charged.
	if sub.MandateAuthorized && sub.GatewayCustomerID != "" {
		return &dto.SetupMandateResponse{
			CustomerID:        sub.GatewayCustomerID,
			AlreadyAuthorized: true,
		}, nil
	}

	if sub.GatewayCustomerID == "" {
		customer, err := s.Gateway.CreateCustomer(ctx, sub.IdentityKey, sub.IdentityKey)
		if err != nil {
			return nil, err
		}
		sub.GatewayCustomerID = customer.ID
		sub.UpdatedBy = types.GetUserID(ctx)
		if err := s.SubRepo.Update(ctx, sub); err != nil {
			return nil, err
		}
	}

	return &dto.SetupMandateResponse{
		CustomerID:        sub.GatewayCustomerID,
		AlreadyAuthorized: false,
	}, nil
}

func (s *paymentService) CreateAuthorizationOrder(ctx context.Context, identity subscription.Identity) (*dto.CreateOrderResponse, error) {
	sub, err := s.requireSubscription(ctx, identity)
	if err != nil {
		return nil, err
	}
	if sub.GatewayCustomerID == "" {
		return nil, ierr.NewError("mandate setup has not been started").
			WithHint("Call setup-mandate before creating an authorization order").
			Mark(ierr.ErrValidation)
	}

	order, err := s.Gateway.CreateAuthorizationOrder(ctx, sub.GatewayCustomerID,
		s.Config.Razorpay.AuthorizationAmount, s.Config.Razorpay.Currency)
	if err != nil {
		return nil, err
	}

	return &dto.CreateOrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    s.Config.Razorpay.KeyID,
	}, nil
}

func (s *paymentService) VerifyMandate(ctx context.Context, identity subscription.Identity, req *dto.VerifyMandateRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if !s.Gateway.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		s.Logger.Warnw("mandate signature verification failed",
			"order_id", req.RazorpayOrderID,
			"payment_id", req.RazorpayPaymentID,
			"customer_id", req.CustomerID)
		return nil, ierr.NewError("mandate signature verification failed").
			WithHint("The mandate authorization could not be verified").
			Mark(ierr.ErrSignatureInvalid)
	}

	if existing, err := s.PaymentRepo.GetByGatewayPaymentID(ctx, req.RazorpayPaymentID); err == nil && existing != nil {
		sub, err := s.SubRepo.Get(ctx, existing.SubscriptionID)
		if err != nil {
			return nil, err
		}
		return dto.NewSubscriptionResponse(sub), nil
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	sub, err := s.requireSubscription(ctx, identity)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub.MandateAuthorized = true
	sub.MandateAuthDate = &now
	sub.GatewayCustomerID = req.CustomerID
	sub.UpdatedBy = types.GetUserID(ctx)
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	entry := &payment.Payment{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		SubscriptionID:   sub.ID,
		IdentityKey:      sub.IdentityKey,
		Kind:             types.PaymentKindMandateAuth,
		Status:           types.PaymentStatusCaptured,
		Amount:           paiseToDecimal(s.Config.Razorpay.AuthorizationAmount),
		Currency:         s.Config.Razorpay.Currency,
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		CreatedAt:        now,
	}
	if err := s.PaymentRepo.Create(ctx, entry); err != nil && !ierr.IsAlreadyExists(err) {
		return nil, err
	}

	s.Logger.Infow("mandate authorized",
		"subscription_id", sub.ID,
		"identity_key", sub.IdentityKey,
		"customer_id", req.CustomerID)

	s.billing.InvalidateStatusCache(ctx, sub.IdentityKey)
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *paymentService) ListPayments(ctx context.Context, identity subscription.Identity) ([]*dto.PaymentResponse, error) {
	sub, err := s.requireSubscription(ctx, identity)
	if err != nil {
		return nil, err
	}
	payments, err := s.PaymentRepo.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentListResponse(payments), nil
}

func (s *paymentService) ApplyCapturedPayment(ctx context.Context, gatewayPaymentID, gatewayOrderID string, amount int64, currency string) error {
	if applied, err := s.alreadyApplied(ctx, gatewayPaymentID); err != nil || applied {
		return err
	}

	sub, err := s.SubRepo.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("captured payment has no matching subscription, skipping",
				"gateway_payment_id", gatewayPaymentID,
				"gateway_order_id", gatewayOrderID)
			return nil
		}
		return err
	}

	return s.activate(ctx, sub, gatewayOrderID, gatewayPaymentID, paiseToDecimal(amount), currency, "")
}

func (s *paymentService) ApplySubscriptionCharged(ctx context.Context, gatewaySubscriptionID, gatewayPaymentID string, amount int64, currency string) error {
	if applied, err := s.alreadyApplied(ctx, gatewayPaymentID); err != nil || applied {
		return err
	}

	sub, err := s.SubRepo.GetByGatewaySubscriptionID(ctx, gatewaySubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("charged event has no matching subscription, skipping",
				"gateway_subscription_id", gatewaySubscriptionID)
			return nil
		}
		return err
	}

	// Cancelled is terminal: a late renewal delivery never reactivates it.
	if sub.IsCancelled() {
		s.Logger.Warnw("charged event targets a cancelled subscription, skipping",
			"subscription_id", sub.ID,
			"gateway_subscription_id", gatewaySubscriptionID)
		return nil
	}

	now := time.Now().UTC()

	// Renewal extends the current term rather than restarting it.
	termStart := now
	if sub.SubscriptionEnd != nil && sub.SubscriptionEnd.After(now) {
		termStart = *sub.SubscriptionEnd
	}
	termEnd := termStart.Add(paidTermDays * 24 * time.Hour)

	sub.Status = types.SubscriptionStatusActive
	if sub.SubscriptionStart == nil {
		sub.SubscriptionStart = &now
	}
	sub.SubscriptionEnd = &termEnd
	sub.LastPaymentAt = &now
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	entry := &payment.Payment{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		SubscriptionID:   sub.ID,
		IdentityKey:      sub.IdentityKey,
		Kind:             types.PaymentKindCharge,
		Status:           types.PaymentStatusCaptured,
		Amount:           paiseToDecimal(amount),
		Currency:         currency,
		GatewayPaymentID: gatewayPaymentID,
		CreatedAt:        now,
	}
	if err := s.PaymentRepo.Create(ctx, entry); err != nil && !ierr.IsAlreadyExists(err) {
		return err
	}

	s.Logger.Infow("applied recurring charge",
		"subscription_id", sub.ID,
		"identity_key", sub.IdentityKey,
		"subscription_end", termEnd)

	s.billing.InvalidateStatusCache(ctx, sub.IdentityKey)
	return nil
}

func (s *paymentService) ApplySubscriptionCancelled(ctx context.Context, gatewaySubscriptionID string) error {
	sub, err := s.SubRepo.GetByGatewaySubscriptionID(ctx, gatewaySubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("cancelled event has no matching subscription, skipping",
				"gateway_subscription_id", gatewaySubscriptionID)
			return nil
		}
		return err
	}

	if sub.IsCancelled() {
		return nil
	}

	now := time.Now().UTC()
	sub.Status = types.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	sub.CancelledBy = "gateway"
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.Logger.Infow("subscription cancelled by gateway",
		"subscription_id", sub.ID,
		"identity_key", sub.IdentityKey)

	s.billing.InvalidateStatusCache(ctx, sub.IdentityKey)
	return nil
}

// activate performs the verified transition to active and appends exactly one
// history entry for the payment. Cancelled records are terminal and are never
// reactivated by a late gateway delivery.
func (s *paymentService) activate(ctx context.Context, sub *subscription.Subscription, gatewayOrderID, gatewayPaymentID string, amount decimal.Decimal, currency string, couponCode string) error {
	if sub.IsCancelled() {
		s.Logger.Warnw("payment targets a cancelled subscription, skipping",
			"subscription_id", sub.ID,
			"identity_key", sub.IdentityKey,
			"gateway_payment_id", gatewayPaymentID)
		return nil
	}

	now := time.Now().UTC()
	termEnd := now.Add(paidTermDays * 24 * time.Hour)

	sub.Status = types.SubscriptionStatusActive
	sub.SubscriptionStart = &now
	sub.SubscriptionEnd = &termEnd
	sub.GatewayOrderID = gatewayOrderID
	sub.GatewayPaymentID = gatewayPaymentID
	sub.LastPaymentAt = &now
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	entry := &payment.Payment{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		SubscriptionID:   sub.ID,
		IdentityKey:      sub.IdentityKey,
		Kind:             types.PaymentKindCharge,
		Status:           types.PaymentStatusCaptured,
		Amount:           amount,
		Currency:         currency,
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: gatewayPaymentID,
		CouponCode:       couponCode,
		CreatedAt:        now,
	}
	if err := s.PaymentRepo.Create(ctx, entry); err != nil && !ierr.IsAlreadyExists(err) {
		return err
	}

	if couponCode != "" {
		s.recordRedemption(ctx, couponCode, sub.IdentityKey)
	}

	s.Logger.Infow("subscription activated",
		"subscription_id", sub.ID,
		"identity_key", sub.IdentityKey,
		"gateway_payment_id", gatewayPaymentID,
		"subscription_end", termEnd)

	s.billing.InvalidateStatusCache(ctx, sub.IdentityKey)
	return nil
}

func (s *paymentService) alreadyApplied(ctx context.Context, gatewayPaymentID string) (bool, error) {
	existing, err := s.PaymentRepo.GetByGatewayPaymentID(ctx, gatewayPaymentID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return existing != nil, nil
}

// paymentAmount fetches the captured amount from the gateway, falling back to
// the locally computed price when the gateway is unreachable. The fallback
// only affects the history record, never the activation decision.
func (s *paymentService) paymentAmount(ctx context.Context, gatewayPaymentID string, sub *subscription.Subscription) (decimal.Decimal, string) {
	p, err := s.Gateway.FetchPayment(ctx, gatewayPaymentID)
	if err != nil {
		s.Logger.Warnw("could not fetch payment for history record",
			"gateway_payment_id", gatewayPaymentID,
			"error", err)
		amount := s.Config.Billing.PricePerProfile.Mul(decimal.NewFromInt(int64(sub.ProfileCount)))
		return amount, s.Config.Razorpay.Currency
	}
	return paiseToDecimal(p.Amount), p.Currency
}

// recordRedemption is best-effort after a verified payment; a duplicate
// usage row means a retried verification and is not an error.
func (s *paymentService) recordRedemption(ctx context.Context, code, identityKey string) {
	c, err := s.CouponRepo.GetByCode(ctx, code)
	if err != nil {
		s.Logger.Warnw("could not load coupon for redemption", "code", code, "error", err)
		return
	}

	usage := &coupon.Usage{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COUPON_USAGE),
		CouponID:    c.ID,
		IdentityKey: identityKey,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.CouponRepo.CreateUsage(ctx, usage); err != nil && !ierr.IsAlreadyExists(err) {
		s.Logger.Warnw("could not record coupon redemption",
			"code", code,
			"identity_key", identityKey,
			"error", err)
	}
}

func (s *paymentService) findSubscriptionForOrder(ctx context.Context, gatewayOrderID string, identity subscription.Identity) (*subscription.Subscription, error) {
	sub, err := s.SubRepo.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err == nil {
		return sub, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}
	return s.requireSubscription(ctx, identity)
}

func (s *paymentService) requireSubscription(ctx context.Context, identity subscription.Identity) (*subscription.Subscription, error) {
	sub, err := s.billing.ResolveIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ierr.NewError("no subscription found for this account").
			WithHint("Start a trial or subscribe first").
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func toPaise(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func paiseToDecimal(paise int64) decimal.Decimal {
	return decimal.NewFromInt(paise).Shift(-2)
}
