package service

import (
	"context"
	"testing"
	"time"

	"github.com/localpulse/localpulse/internal/api/dto"
	"github.com/localpulse/localpulse/internal/domain/subscription"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/integration/razorpay"
	"github.com/localpulse/localpulse/internal/testutil"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PaymentService
	billing BillingService
	gateway *testutil.FakeGateway
	ctx     context.Context
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.ctx = context.Background()
	s.gateway = testutil.NewFakeGateway()

	params := ServiceParams{
		Logger:      s.GetLogger(),
		Config:      s.GetConfig(),
		SubRepo:     s.GetStores().SubscriptionRepo,
		PaymentRepo: s.GetStores().PaymentRepo,
		CouponRepo:  s.GetStores().CouponRepo,
		EventRepo:   s.GetStores().WebhookEventRepo,
		Gateway:     s.gateway,
		Locations:   testutil.NewFakeLocationCounter(nil),
		Cache:       s.GetCache(),
	}
	s.billing = NewBillingService(params)
	s.service = NewPaymentService(params, s.billing, NewCouponService(params))
}

func (s *PaymentServiceSuite) identity() subscription.Identity {
	return subscription.Identity{Email: "owner@example.com", UserID: "user_1"}
}

func (s *PaymentServiceSuite) startTrial(profiles int) {
	_, err := s.billing.StartTrial(s.ctx, s.identity(), &dto.StartTrialRequest{ProfileCount: profiles})
	s.Require().NoError(err)
}

// createOrder runs CreateOrder and registers the resulting payment with the
// fake gateway so a later verify can fetch it.
func (s *PaymentServiceSuite) createOrderAndPay(couponCode string) (orderID, paymentID string, amount int64) {
	order, err := s.service.CreateOrder(s.ctx, s.identity(), &dto.CreateOrderRequest{CouponCode: couponCode})
	s.Require().NoError(err)

	paymentID = "pay_" + order.OrderID
	s.gateway.AddPayment(&razorpay.Payment{
		ID:       paymentID,
		OrderID:  order.OrderID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Status:   "captured",
	})
	return order.OrderID, paymentID, order.Amount
}

func (s *PaymentServiceSuite) TestCreateOrderComputesAmountServerSide() {
	s.startTrial(3)

	order, err := s.service.CreateOrder(s.ctx, s.identity(), &dto.CreateOrderRequest{})
	s.NoError(err)

	// 99 per profile, 3 profiles, in paise
	s.Equal(int64(29700), order.Amount)
	s.Equal("INR", order.Currency)
	s.NotEmpty(order.OrderID)

	sub, err := s.billing.ResolveIdentity(s.ctx, s.identity())
	s.NoError(err)
	s.Equal(order.OrderID, sub.GatewayOrderID)
	s.Equal(types.SubscriptionStatusTrial, sub.Status)
}

func (s *PaymentServiceSuite) TestCreateOrderAppliesCoupon() {
	s.startTrial(2)

	req := &dto.CreateCouponRequest{Code: "HALF50", PercentOff: decimal.NewFromInt(50)}
	_, err := NewCouponService(ServiceParams{
		Logger:     s.GetLogger(),
		Config:     s.GetConfig(),
		CouponRepo: s.GetStores().CouponRepo,
	}).CreateCoupon(s.ctx, req)
	s.Require().NoError(err)

	order, err := s.service.CreateOrder(s.ctx, s.identity(), &dto.CreateOrderRequest{CouponCode: "HALF50"})
	s.NoError(err)
	s.Equal(int64(9900), order.Amount)
}

func (s *PaymentServiceSuite) TestCreateOrderWithoutSubscription() {
	_, err := s.service.CreateOrder(s.ctx, s.identity(), &dto.CreateOrderRequest{})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentServiceSuite) TestVerifyPaymentActivates() {
	s.startTrial(3)
	orderID, paymentID, amount := s.createOrderAndPay("")

	resp, err := s.service.VerifyPayment(s.ctx, s.identity(), &dto.VerifyPaymentRequest{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: "valid",
	})
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, resp.Status)
	s.NotNil(resp.SubscriptionEnd)
	s.WithinDuration(time.Now().UTC().Add(paidTermDays*24*time.Hour), *resp.SubscriptionEnd, time.Minute)

	history, err := s.service.ListPayments(s.ctx, s.identity())
	s.NoError(err)
	s.Require().Len(history, 1)
	s.Equal(types.PaymentKindCharge, history[0].Kind)
	s.Equal(types.PaymentStatusCaptured, history[0].Status)
	s.True(history[0].Amount.Equal(decimal.NewFromInt(amount).Shift(-2)))
}

func (s *PaymentServiceSuite) TestVerifyPaymentDuplicateIsNoOp() {
	s.startTrial(1)
	orderID, paymentID, _ := s.createOrderAndPay("")

	req := &dto.VerifyPaymentRequest{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: "valid",
	}
	first, err := s.service.VerifyPayment(s.ctx, s.identity(), req)
	s.NoError(err)

	second, err := s.service.VerifyPayment(s.ctx, s.identity(), req)
	s.NoError(err)
	s.Equal(first.ID, second.ID)

	history, err := s.service.ListPayments(s.ctx, s.identity())
	s.NoError(err)
	s.Len(history, 1)
}

func (s *PaymentServiceSuite) TestVerifyPaymentRejectsBadSignature() {
	s.startTrial(1)
	orderID, paymentID, _ := s.createOrderAndPay("")

	s.gateway.RejectSignatures = true
	_, err := s.service.VerifyPayment(s.ctx, s.identity(), &dto.VerifyPaymentRequest{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: "forged",
	})
	s.Error(err)
	s.True(ierr.IsSignatureInvalid(err))

	// nothing may change on a failed verification
	sub, err := s.billing.ResolveIdentity(s.ctx, s.identity())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusTrial, sub.Status)

	history, err := s.service.ListPayments(s.ctx, s.identity())
	s.NoError(err)
	s.Len(history, 0)
}

func (s *PaymentServiceSuite) TestVerifyPaymentDuplicateStillRequiresSignature() {
	s.startTrial(1)
	orderID, paymentID, _ := s.createOrderAndPay("")

	_, err := s.service.VerifyPayment(s.ctx, s.identity(), &dto.VerifyPaymentRequest{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: "valid",
	})
	s.Require().NoError(err)

	// a known payment id does not bypass the signature check
	s.gateway.RejectSignatures = true
	_, err = s.service.VerifyPayment(s.ctx, s.identity(), &dto.VerifyPaymentRequest{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: "forged",
	})
	s.Error(err)
	s.True(ierr.IsSignatureInvalid(err))
}

func (s *PaymentServiceSuite) TestVerifyPaymentRejectsCancelled() {
	s.startTrial(1)
	orderID, paymentID, _ := s.createOrderAndPay("")

	cancelled, err := s.billing.Cancel(s.ctx, s.identity(), "user")
	s.Require().NoError(err)

	_, err = s.service.VerifyPayment(s.ctx, s.identity(), &dto.VerifyPaymentRequest{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: "valid",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	sub, err := s.GetStores().SubscriptionRepo.Get(s.ctx, cancelled.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, sub.Status)
}

func (s *PaymentServiceSuite) TestVerifyPaymentRecordsCouponRedemption() {
	s.startTrial(2)

	couponSvc := NewCouponService(ServiceParams{
		Logger:     s.GetLogger(),
		Config:     s.GetConfig(),
		CouponRepo: s.GetStores().CouponRepo,
	})
	_, err := couponSvc.CreateCoupon(s.ctx, &dto.CreateCouponRequest{
		Code:       "ONCE10",
		PercentOff: decimal.NewFromInt(10),
		SingleUse:  true,
	})
	s.Require().NoError(err)

	orderID, paymentID, _ := s.createOrderAndPay("ONCE10")
	_, err = s.service.VerifyPayment(s.ctx, s.identity(), &dto.VerifyPaymentRequest{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: "valid",
		CouponCode:        "ONCE10",
	})
	s.NoError(err)

	// redeemed: the same identity cannot use the coupon again
	_, err = couponSvc.PreviewDiscount(s.ctx, "ONCE10", "owner@example.com", decimal.NewFromInt(100))
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestSetupMandateIdempotent() {
	s.startTrial(1)

	first, err := s.service.SetupMandate(s.ctx, s.identity())
	s.NoError(err)
	s.NotEmpty(first.CustomerID)
	s.False(first.AlreadyAuthorized)

	// same customer on retry
	second, err := s.service.SetupMandate(s.ctx, s.identity())
	s.NoError(err)
	s.Equal(first.CustomerID, second.CustomerID)
}

func (s *PaymentServiceSuite) TestVerifyMandate() {
	s.startTrial(1)

	setup, err := s.service.SetupMandate(s.ctx, s.identity())
	s.Require().NoError(err)

	order, err := s.service.CreateAuthorizationOrder(s.ctx, s.identity())
	s.Require().NoError(err)
	s.Equal(s.GetConfig().Razorpay.AuthorizationAmount, order.Amount)

	resp, err := s.service.VerifyMandate(s.ctx, s.identity(), &dto.VerifyMandateRequest{
		RazorpayOrderID:   order.OrderID,
		RazorpayPaymentID: "pay_mandate_1",
		RazorpaySignature: "valid",
		CustomerID:        setup.CustomerID,
	})
	s.NoError(err)
	s.True(resp.MandateAuthorized)

	// authorized mandate is not re-created
	again, err := s.service.SetupMandate(s.ctx, s.identity())
	s.NoError(err)
	s.True(again.AlreadyAuthorized)

	history, err := s.service.ListPayments(s.ctx, s.identity())
	s.NoError(err)
	s.Require().Len(history, 1)
	s.Equal(types.PaymentKindMandateAuth, history[0].Kind)
}

func (s *PaymentServiceSuite) TestCreateAuthorizationOrderRequiresSetup() {
	s.startTrial(1)

	_, err := s.service.CreateAuthorizationOrder(s.ctx, s.identity())
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestApplyCapturedPayment() {
	s.startTrial(2)
	orderID, _, _ := s.createOrderAndPay("")

	err := s.service.ApplyCapturedPayment(s.ctx, "pay_webhook_1", orderID, 19800, "INR")
	s.NoError(err)

	sub, err := s.billing.ResolveIdentity(s.ctx, s.identity())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.Status)

	// redelivery is a no-op
	err = s.service.ApplyCapturedPayment(s.ctx, "pay_webhook_1", orderID, 19800, "INR")
	s.NoError(err)
	history, err := s.service.ListPayments(s.ctx, s.identity())
	s.NoError(err)
	s.Len(history, 1)
}

func (s *PaymentServiceSuite) TestApplyCapturedPaymentUnknownOrder() {
	// unmatched orders are skipped, never an error back to the gateway
	err := s.service.ApplyCapturedPayment(s.ctx, "pay_unknown", "order_unknown", 100, "INR")
	s.NoError(err)
}

func (s *PaymentServiceSuite) TestApplySubscriptionChargedExtendsTerm() {
	s.startTrial(1)

	sub, err := s.billing.ResolveIdentity(s.ctx, s.identity())
	s.Require().NoError(err)
	now := time.Now().UTC()
	end := now.Add(5 * 24 * time.Hour)
	sub.Status = types.SubscriptionStatusActive
	sub.SubscriptionStart = &now
	sub.SubscriptionEnd = &end
	sub.GatewaySubscriptionID = "rzpsub_1"
	s.Require().NoError(s.GetStores().SubscriptionRepo.Update(s.ctx, sub))

	err = s.service.ApplySubscriptionCharged(s.ctx, "rzpsub_1", "pay_renewal_1", 9900, "INR")
	s.NoError(err)

	renewed, err := s.billing.ResolveIdentity(s.ctx, s.identity())
	s.NoError(err)
	// renewal stacks on the remaining term instead of restarting from now
	s.WithinDuration(end.Add(paidTermDays*24*time.Hour), *renewed.SubscriptionEnd, time.Minute)
	s.NotNil(renewed.LastPaymentAt)
}

func (s *PaymentServiceSuite) TestApplyCapturedPaymentSkipsCancelled() {
	s.startTrial(1)
	orderID, _, _ := s.createOrderAndPay("")

	cancelled, err := s.billing.Cancel(s.ctx, s.identity(), "user")
	s.Require().NoError(err)

	err = s.service.ApplyCapturedPayment(s.ctx, "pay_late_1", orderID, 9900, "INR")
	s.NoError(err)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.ctx, cancelled.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, sub.Status)

	payments, err := s.GetStores().PaymentRepo.ListBySubscription(s.ctx, cancelled.ID)
	s.NoError(err)
	s.Len(payments, 0)
}

func (s *PaymentServiceSuite) TestApplySubscriptionChargedSkipsCancelled() {
	s.startTrial(1)

	sub, err := s.billing.ResolveIdentity(s.ctx, s.identity())
	s.Require().NoError(err)
	sub.GatewaySubscriptionID = "rzpsub_late"
	s.Require().NoError(s.GetStores().SubscriptionRepo.Update(s.ctx, sub))

	_, err = s.billing.Cancel(s.ctx, s.identity(), "user")
	s.Require().NoError(err)

	// a late renewal delivery never resurrects the cancelled record
	err = s.service.ApplySubscriptionCharged(s.ctx, "rzpsub_late", "pay_late_2", 9900, "INR")
	s.NoError(err)

	after, err := s.GetStores().SubscriptionRepo.Get(s.ctx, sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, after.Status)
	s.Nil(after.SubscriptionEnd)

	payments, err := s.GetStores().PaymentRepo.ListBySubscription(s.ctx, sub.ID)
	s.NoError(err)
	s.Len(payments, 0)
}

func (s *PaymentServiceSuite) TestApplySubscriptionCancelled() {
	s.startTrial(1)

	sub, err := s.billing.ResolveIdentity(s.ctx, s.identity())
	s.Require().NoError(err)
	sub.Status = types.SubscriptionStatusActive
	sub.GatewaySubscriptionID = "rzpsub_2"
	s.Require().NoError(s.GetStores().SubscriptionRepo.Update(s.ctx, sub))

	err = s.service.ApplySubscriptionCancelled(s.ctx, "rzpsub_2")
	s.NoError(err)

	cancelled, err := s.GetStores().SubscriptionRepo.Get(s.ctx, sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, cancelled.Status)
	s.Equal("gateway", cancelled.CancelledBy)

	// repeated delivery stays terminal
	s.NoError(s.service.ApplySubscriptionCancelled(s.ctx, "rzpsub_2"))
}
