package cron

import (
	"net/http"
	"time"

	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/service"

	"github.com/gin-gonic/gin"
)

// BillingCronHandler exposes the scheduled billing jobs as endpoints so an
// external scheduler can trigger them alongside the in-process one.
type BillingCronHandler struct {
	reconService service.ReconciliationService
	logger       *logger.Logger
}

func NewBillingCronHandler(
	reconService service.ReconciliationService,
	logger *logger.Logger,
) *BillingCronHandler {
	return &BillingCronHandler{
		reconService: reconService,
		logger:       logger,
	}
}

// ExpireTrials persists elapsed trials as expired.
func (h *BillingCronHandler) ExpireTrials(c *gin.Context) {
	h.logger.Infow("starting trial expiry cron job", "time", time.Now().UTC().Format(time.RFC3339))

	count, err := h.reconService.ExpireElapsedTrials(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to expire trials", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed trial expiry cron job", "expired", count)
	c.JSON(http.StatusOK, gin.H{"status": "success", "expired": count})
}
