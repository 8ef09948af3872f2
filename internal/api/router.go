package api

import (
	cronapi "github.com/localpulse/localpulse/internal/api/cron"
	v1 "github.com/localpulse/localpulse/internal/api/v1"
	"github.com/localpulse/localpulse/internal/auth"
	"github.com/localpulse/localpulse/internal/config"
	"github.com/localpulse/localpulse/internal/integration/razorpay/webhook"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/rest/middleware"
	"github.com/localpulse/localpulse/internal/service"

	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler mounted by the router.
type Handlers struct {
	Health      *v1.HealthHandler
	Billing     *v1.BillingHandler
	Payment     *v1.PaymentHandler
	Coupon      *v1.CouponHandler
	Webhook     *webhook.Handler
	BillingCron *cronapi.BillingCronHandler
}

func NewRouter(
	handlers Handlers,
	cfg *config.Configuration,
	log *logger.Logger,
	authProvider auth.Provider,
	billing service.BillingService,
) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.LoggingMiddleware(log),
		middleware.ErrorHandler(log),
	)

	router.GET("/health", handlers.Health.Health)

	// Webhooks authenticate by signature, not bearer token, and are never
	// gated by the subscription guard.
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/razorpay", handlers.Webhook.Handle)
	}

	// Cron triggers are for internal schedulers; they carry no user identity.
	cron := router.Group("/cron")
	{
		cron.POST("/expire-trials", handlers.BillingCron.ExpireTrials)
	}

	private := router.Group("/api/v1")
	private.Use(
		middleware.AuthenticateMiddleware(authProvider, log),
		middleware.SentryUserContextMiddleware,
		middleware.SubscriptionGuard(billing, log),
	)
	{
		billingRoutes := private.Group("/billing")
		{
			billingRoutes.GET("/status", handlers.Billing.GetStatus)
			billingRoutes.POST("/trial", handlers.Billing.StartTrial)
			billingRoutes.POST("/profile-count", handlers.Billing.RefreshProfileCount)
			billingRoutes.POST("/cancel", handlers.Billing.Cancel)
			billingRoutes.POST("/reconcile", handlers.Billing.Reconcile)
		}

		payments := private.Group("/payments")
		{
			payments.GET("", handlers.Payment.ListPayments)
			payments.POST("/orders", handlers.Payment.CreateOrder)
			payments.POST("/verify", handlers.Payment.VerifyPayment)
			payments.POST("/mandate/setup", handlers.Payment.SetupMandate)
			payments.POST("/mandate/order", handlers.Payment.CreateAuthorizationOrder)
			payments.POST("/mandate/verify", handlers.Payment.VerifyMandate)
		}

		coupons := private.Group("/coupons")
		{
			coupons.POST("", handlers.Coupon.CreateCoupon)
			coupons.GET("/:code", handlers.Coupon.GetCoupon)
		}
	}

	return router
}
