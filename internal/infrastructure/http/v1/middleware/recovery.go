package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"hesap/internal/core/apperror"
	"hesap/pkg/logger"
)

// Recovery middleware recovers from panics and returns a 500 error.
// Logs the stack trace but never exposes it to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
				)

				_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", rec)))
				c.Abort()
				WriteError(c)
			}
		}()
		c.Next()
	}
}
