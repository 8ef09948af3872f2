package middleware

import (
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler converts errors attached via c.Error into the standard
// response envelope. Handlers never write error bodies themselves.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)

		if status >= 500 {
			log.WithContext(c.Request.Context()).Errorw("request failed",
				"path", c.Request.URL.Path,
				"error", err)
		}

		c.AbortWithStatusJSON(status, ierr.NewErrorResponse(err))
	}
}
