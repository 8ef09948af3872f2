package middleware

import (
	"context"

	"github.com/localpulse/localpulse/internal/types"

	"github.com/gin-gonic/gin"
)

// RequestIDMiddleware assigns every request an id, honoring one supplied by
// the caller so ids correlate across services.
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUID()
	}

	ctx := context.WithValue(c.Request.Context(), types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)
	c.Next()
}
