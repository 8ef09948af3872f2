package service

import (
	"github.com/localpulse/localpulse/internal/cache"
	"github.com/localpulse/localpulse/internal/config"
	"github.com/localpulse/localpulse/internal/domain/coupon"
	"github.com/localpulse/localpulse/internal/domain/payment"
	"github.com/localpulse/localpulse/internal/domain/subscription"
	"github.com/localpulse/localpulse/internal/domain/webhookevent"
	"github.com/localpulse/localpulse/internal/integration/gbp"
	"github.com/localpulse/localpulse/internal/integration/razorpay"
	"github.com/localpulse/localpulse/internal/logger"
)

// ServiceParams bundles the dependencies shared by every service. Each
// service embeds it and picks what it needs.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	SubRepo     subscription.Repository
	PaymentRepo payment.Repository
	CouponRepo  coupon.Repository
	EventRepo   webhookevent.Repository

	Gateway   razorpay.Gateway
	Locations gbp.LocationCounter
	Cache     cache.Cache
}
