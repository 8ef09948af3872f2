package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/localpulse/localpulse/internal/api"
	cronapi "github.com/localpulse/localpulse/internal/api/cron"
	v1 "github.com/localpulse/localpulse/internal/api/v1"
	"github.com/localpulse/localpulse/internal/auth"
	"github.com/localpulse/localpulse/internal/cache"
	"github.com/localpulse/localpulse/internal/config"
	"github.com/localpulse/localpulse/internal/cron"
	"github.com/localpulse/localpulse/internal/integration/gbp"
	"github.com/localpulse/localpulse/internal/integration/razorpay"
	"github.com/localpulse/localpulse/internal/integration/razorpay/webhook"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/postgres"
	pgrepo "github.com/localpulse/localpulse/internal/repository/postgres"
	"github.com/localpulse/localpulse/internal/service"

	"github.com/getsentry/sentry-go"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logger.L.Fatalw("failed to load configuration", "error", err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		logger.L.Fatalw("failed to initialize logger", "error", err)
	}

	if cfg.Sentry.Enabled {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			TracesSampleRate: cfg.Sentry.SampleRate,
		})
		if err != nil {
			log.Errorw("failed to initialize sentry", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := postgres.NewClient(cfg, log)
	if err != nil {
		log.Fatalw("failed to connect to postgres", "error", err)
	}
	if cfg.Postgres.AutoMigrate {
		if err := pgrepo.Migrate(db); err != nil {
			log.Fatalw("failed to run migrations", "error", err)
		}
	}

	params := service.ServiceParams{
		Logger:      log,
		Config:      cfg,
		SubRepo:     pgrepo.NewSubscriptionRepository(db, log),
		PaymentRepo: pgrepo.NewPaymentRepository(db, log),
		CouponRepo:  pgrepo.NewCouponRepository(db, log),
		EventRepo:   pgrepo.NewWebhookEventRepository(db, log),
		Gateway:     razorpay.NewClient(cfg, log),
		Locations:   gbp.NewClient(cfg, log),
		Cache:       cache.Initialize(cfg, log),
	}

	billingService := service.NewBillingService(params)
	couponService := service.NewCouponService(params)
	paymentService := service.NewPaymentService(params, billingService, couponService)
	reconService := service.NewReconciliationService(params, billingService)

	scheduler := cron.NewScheduler(cfg, reconService, log)
	if err := scheduler.Start(); err != nil {
		log.Fatalw("failed to start cron scheduler", "error", err)
	}
	defer scheduler.Stop()

	router := api.NewRouter(
		api.Handlers{
			Health:      v1.NewHealthHandler(),
			Billing:     v1.NewBillingHandler(billingService, reconService, log),
			Payment:     v1.NewPaymentHandler(paymentService, log),
			Coupon:      v1.NewCouponHandler(couponService, log),
			Webhook:     webhook.NewHandler(params.Gateway, paymentService, params.EventRepo, log),
			BillingCron: cronapi.NewBillingCronHandler(reconService, log),
		},
		cfg, log, auth.NewSupabaseAuth(cfg, log), billingService,
	)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		log.Infow("starting server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server stopped unexpectedly", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("forced shutdown", "error", err)
	}
}
