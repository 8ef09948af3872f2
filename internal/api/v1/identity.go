package v1

import (
	"strings"

	"github.com/localpulse/localpulse/internal/domain/subscription"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/gin-gonic/gin"
)

// requestIdentity assembles the candidate billing keys for the caller from
// the authenticated claims, the explicit billing-account header and the
// legacy email query parameter.
func requestIdentity(c *gin.Context) subscription.Identity {
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
