package cron

import (
	"context"
	"time"

	"github.com/localpulse/localpulse/internal/config"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/service"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the recurring billing jobs in-process: the nightly duplicate
// reconciliation and the hourly sweep that persists elapsed trials as
// expired. Transient failures are retried with exponential backoff before the
// run is abandoned until its next tick.
type Scheduler struct {
	cron         *cron.Cron
	cfg          *config.Configuration
	reconService service.ReconciliationService
	logger       *logger.Logger
}

func NewScheduler(
	cfg *config.Configuration,
	reconService service.ReconciliationService,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithLocation(time.UTC)),
		cfg:          cfg,
		reconService: reconService,
		logger:       log,
	}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Cron.Enabled {
		s.logger.Infow("cron scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.Cron.ReconcileSpec, s.runReconcile); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.Cron.ExpirySweepSpec, s.runExpirySweep); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Infow("cron scheduler started",
		"reconcile_spec", s.cfg.Cron.ReconcileSpec,
		"expiry_sweep_spec", s.cfg.Cron.ExpirySweepSpec)
	return nil
}

// Stop waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var merged int
	err := s.withRetry(ctx, func() error {
		var err error
		merged, err = s.reconService.ReconcileAll(ctx)
		return err
	})
	if err != nil {
		s.logger.Errorw("reconcile job failed", "error", err)
		return
	}
	s.logger.Infow("reconcile job completed", "merged", merged)
}

func (s *Scheduler) runExpirySweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var expired int
	err := s.withRetry(ctx, func() error {
		var err error
		expired, err = s.reconService.ExpireElapsedTrials(ctx)
		return err
	})
	if err != nil {
		s.logger.Errorw("trial expiry sweep failed", "error", err)
		return
	}
	if expired > 0 {
		s.logger.Infow("trial expiry sweep completed", "expired", expired)
	}
}

func (s *Scheduler) withRetry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(op, policy)
}
