package middleware

import (
	"context"
	"strings"

	"github.com/localpulse/localpulse/internal/auth"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/gin-gonic/gin"
)

// AuthenticateMiddleware validates the bearer token and puts the resolved
// claims on the request context.
func AuthenticateMiddleware(provider auth.Provider, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader(types.HeaderAuthorization))
		if token == "" {
			c.Error(ierr.NewError("missing or malformed authorization header").
				WithHint("Provide a bearer token").
				Mark(ierr.ErrPermissionDenied))
			c.Abort()
			return
		}

		claims, err := provider.ValidateToken(c.Request.Context(), token)
		if err != nil {
			log.Debugw("token validation failed", "error", err)
			c.Error(ierr.WithError(err).
				WithHint("Invalid or expired token").
				Mark(ierr.ErrPermissionDenied))
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, types.CtxUserID, claims.UserID)
		ctx = context.WithValue(ctx, types.CtxUserEmail, claims.Email)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
