package v1

import (
	"net/http"

	"github.com/localpulse/localpulse/internal/api/dto"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/service"

	"github.com/gin-gonic/gin"
)

type CouponHandler struct {
	couponService service.CouponService
	log           *logger.Logger
}

func NewCouponHandler(couponService service.CouponService, log *logger.Logger) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
		log:           log,
	}
}

// @Summary Create a coupon
// @Description Create a discount code with usage caps and a validity window
// @Tags Coupons
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param coupon body dto.CreateCouponRequest true "Coupon definition"
// @Success 201 {object} dto.CouponResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /coupons [post]
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req dto.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.couponService.CreateCoupon(c.Request.Context(), &req)
	if err != nil {
		h.log.Errorw("failed to create coupon", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a coupon
// @Description Fetch a coupon by code
// @Tags Coupons
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.CouponResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /coupons/{code} [get]
func (h *CouponHandler) GetCoupon(c *gin.Context) {
	resp, err := h.couponService.GetCoupon(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
