package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"hesap/internal/core/apperror"
	"hesap/pkg/logger"
)

// NewLimiter builds an in-memory per-key limiter from a formatted rate
// such as "100-M".
func NewLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit limits requests per client IP. Rejections are rendered by
// ErrorHandler like any other error.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return limitergin.NewMiddleware(l,
		limitergin.WithKeyGetter(func(c *gin.Context) string {
			return c.ClientIP()
		}),
		limitergin.WithLimitReachedHandler(func(c *gin.Context) {
			logger.Warn(c.Request.Context(), "rate limit exceeded", "ip", c.ClientIP())
			_ = c.Error(apperror.NewRateLimited())
			WriteError(c)
		}),
		limitergin.WithErrorHandler(func(c *gin.Context, err error) {
			_ = c.Error(apperror.NewInternal(fmt.Errorf("rate limit check: %w", err)))
			WriteError(c)
		}),
	)
}
