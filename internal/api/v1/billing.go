package v1

import (
	"net/http"

	"github.com/localpulse/localpulse/internal/api/dto"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/service"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	billingService service.BillingService
	reconService   service.ReconciliationService
	log            *logger.Logger
}

func NewBillingHandler(
	billingService service.BillingService,
	reconService service.ReconciliationService,
	log *logger.Logger,
) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		reconService:   reconService,
		log:            log,
	}
}

// @Summary Get subscription status
// @Description Evaluate the caller's subscription as of now
// @Tags Billing
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.SubscriptionStatusResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /billing/status [get]
func (h *BillingHandler) GetStatus(c *gin.Context) {
	resp, err := h.billingService.GetStatus(c.Request.Context(), requestIdentity(c))
	if err != nil {
		h.log.Errorw("failed to get subscription status", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Start a free trial
// @Description Create the trial record for a first qualifying connection. Idempotent.
// @Tags Billing
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param trial body dto.StartTrialRequest true "Trial configuration"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /billing/trial [post]
func (h *BillingHandler) StartTrial(c *gin.Context) {
	var req dto.StartTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.billingService.StartTrial(c.Request.Context(), requestIdentity(c), &req)
	if err != nil {
		h.log.Errorw("failed to start trial", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Refresh the billed profile count
// @Description Recompute the location total across all connected accounts
// @Tags Billing
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param accounts body dto.RefreshProfileCountRequest true "Connected account ids"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /billing/profile-count [post]
func (h *BillingHandler) RefreshProfileCount(c *gin.Context) {
	var req dto.RefreshProfileCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.billingService.RefreshProfileCount(c.Request.Context(), requestIdentity(c), req.AccountIDs)
	if err != nil {
		h.log.Errorw("failed to refresh profile count", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel the subscription
// @Description Move the subscription to its terminal cancelled state. Idempotent.
// @Tags Billing
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /billing/cancel [post]
func (h *BillingHandler) Cancel(c *gin.Context) {
	cancelledBy := types.GetUserID(c.Request.Context())
	if cancelledBy == "" {
		cancelledBy = "user"
	}

	resp, err := h.billingService.Cancel(c.Request.Context(), requestIdentity(c), cancelledBy)
	if err != nil {
		h.log.Errorw("failed to cancel subscription", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Reconcile duplicate subscriptions
// @Description Collapse multiple records for one identity down to the most valuable one
// @Tags Billing
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.ReconcileResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /billing/reconcile [post]
func (h *BillingHandler) Reconcile(c *gin.Context) {
	identity := requestIdentity(c)
	if identity.Email == "" {
		c.Error(ierr.NewError("email is required to reconcile").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.reconService.ReconcileDuplicates(c.Request.Context(), identity.Email)
	if err != nil {
		h.log.Errorw("failed to reconcile subscriptions", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
