package v1

import (
	"net/http"

	"github.com/localpulse/localpulse/internal/api/dto"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	log            *logger.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		log:            log,
	}
}

// @Summary Create a payment order
// @Description Create a gateway order for one monthly term; the amount is computed server-side
// @Tags Payments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param order body dto.CreateOrderRequest true "Order options"
// @Success 201 {object} dto.CreateOrderResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /payments/orders [post]
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.paymentService.CreateOrder(c.Request.Context(), requestIdentity(c), &req)
	if err != nil {
		h.log.Errorw("failed to create order", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary Verify a payment
// @Description Verify the checkout callback signature and activate the subscription
// @Tags Payments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param payment body dto.VerifyPaymentRequest true "Checkout callback"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /payments/verify [post]
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.paymentService.VerifyPayment(c.Request.Context(), requestIdentity(c), &req)
	if err != nil {
		h.log.Errorw("failed to verify payment", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Set up a recurring-charge mandate
// @Description Create or return the gateway customer used for mandate authorization
// @Tags Payments
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.SetupMandateResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /payments/mandate/setup [post]
func (h *PaymentHandler) SetupMandate(c *gin.Context) {
	resp, err := h.paymentService.SetupMandate(c.Request.Context(), requestIdentity(c))
	if err != nil {
		h.log.Errorw("failed to set up mandate", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Create a mandate authorization order
// @Description Create the small-value order used to authorize recurring charges
// @Tags Payments
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} dto.CreateOrderResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /payments/mandate/order [post]
func (h *PaymentHandler) CreateAuthorizationOrder(c *gin.Context) {
	resp, err := h.paymentService.CreateAuthorizationOrder(c.Request.Context(), requestIdentity(c))
	if err != nil {
		h.log.Errorw("failed to create authorization order", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary Verify a mandate authorization
// @Description Verify the authorization callback and mark the mandate authorized
// @Tags Payments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param mandate body dto.VerifyMandateRequest true "Authorization callback"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /payments/mandate/verify [post]
func (h *PaymentHandler) VerifyMandate(c *gin.Context) {
	var req dto.VerifyMandateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.paymentService.VerifyMandate(c.Request.Context(), requestIdentity(c), &req)
	if err != nil {
		h.log.Errorw("failed to verify mandate", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List payment history
// @Description List the caller's payments, newest first
// @Tags Payments
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} dto.PaymentResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	resp, err := h.paymentService.ListPayments(c.Request.Context(), requestIdentity(c))
	if err != nil {
		h.log.Errorw("failed to list payments", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
