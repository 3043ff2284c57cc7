package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hesap/internal/core/apperror"
	"hesap/pkg/logger"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		WriteError(c)
	}
}

// WriteError renders the last error registered on c unless a response was
// already written. It is safe to call more than once.
func WriteError(c *gin.Context) {
	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	status, body := RenderError(c, c.Errors.Last().Err)
	c.AbortWithStatusJSON(status, body)
}

// RenderError maps err to its HTTP status and body, logging causes.
func RenderError(c *gin.Context, err error) (int, ErrorBody) {
	ctx := c.Request.Context()

	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Kind == apperror.KindInternal {
		logger.Error(ctx, "unhandled error", "error", err)
		return http.StatusInternalServerError, ErrorBody{
			Code:    apperror.CodeInternal,
			Message: "Internal server error",
			Details: map[string]any{"request_id": c.GetString(requestIDKey)},
		}
	}

	if appErr.Err != nil {
		logger.Warn(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
	}
	return appErr.HTTPStatus, ErrorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
}
