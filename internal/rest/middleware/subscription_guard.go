package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/localpulse/localpulse/internal/domain/subscription"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/service"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// guardExemptPrefixes are route prefixes the guard never gates: health and
// auth must work for everyone, and billing routes must stay reachable so an
// expired account can pay its way back in.
var guardExemptPrefixes = []string{
	"/health",
	"/config",
	"/auth",
	"/api/v1/billing",
	"/api/v1/payments",
	"/api/v1/coupons",
	"/webhooks",
}

// SubscriptionGuard gates platform routes on the caller's subscription state.
// It fails open: when the identity cannot be determined or the status lookup
// itself errors, the request proceeds. Payment enforcement must never become
// an outage amplifier.
func SubscriptionGuard(billing service.BillingService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isGuardExempt(c.Request.URL.Path) {
			c.Next()
			return
		}

		identity := guardIdentity(c)
		if identity.IsEmpty() {
			log.Debugw("subscription guard: no identity on request, allowing",
				"path", c.Request.URL.Path)
			c.Next()
			return
		}

		view, err := billing.GetStatus(c.Request.Context(), identity)
		if err != nil {
			log.Warnw("subscription guard: status lookup failed, allowing",
				"path", c.Request.URL.Path,
				"error", err)
			c.Next()
			return
		}

		c.Header(types.HeaderSubscriptionStatus, string(view.Status))
		c.Header(types.HeaderTrialDaysRemaining, strconv.Itoa(view.DaysRemaining))
		c.Header(types.HeaderBillingOnly, strconv.FormatBool(view.BillingOnly))

		if !view.CanUsePlatform {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error":           "subscription_required",
				"message":         view.Message,
				"status":          view.Status,
				"requiresPayment": true,
				"redirectTo":      "/billing",
			})
			return
		}

		ctx := context.WithValue(c.Request.Context(), types.CtxSubscriptionStatus, view)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func isGuardExempt(path string) bool {
	return lo.SomeBy(guardExemptPrefixes, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

// guardIdentity collects the candidate keys for the caller, strongest first:
// the explicit billing-account header, then the authenticated claims, then an
// email query parameter for legacy callers.
func guardIdentity(c *gin.Context) subscription.Identity {
	ctx := c.Request.Context()

	identity := subscription.Identity{
		Email:  types.GetUserEmail(ctx),
		UserID: types.GetUserID(ctx),
	}

	if account := c.GetHeader(types.HeaderBillingAccount); account != "" {
		if strings.Contains(account, "@") {
			identity.Email = account
		} else {
			identity.LegacyAccountID = account
		}
	}

	if identity.Email == "" {
		identity.Email = c.Query("email")
	}

	return identity
}
