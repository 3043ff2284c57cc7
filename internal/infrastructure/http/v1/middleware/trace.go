package middleware

import (
	"github.com/gin-gonic/gin"

	"hesap/internal/core/trace"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace middleware adds request tracing context. An inbound request id is
// kept; the trace id is always fresh.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		info := trace.New(c.GetHeader(HeaderRequestID))

		c.Request = c.Request.WithContext(trace.With(c.Request.Context(), info))
		c.Set(requestIDKey, info.RequestID)

		c.Header(HeaderRequestID, info.RequestID)
		c.Header(HeaderTraceID, info.TraceID)

		c.Next()
	}
}
