package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"hesap/internal/core/apperror"
	"hesap/internal/infrastructure/storage/postgres"
	"hesap/pkg/logger"
)

const (
	HeaderIdempotencyKey      = "X-Idempotency-Key"
	HeaderIdempotencyReplayed = "X-Idempotency-Replayed"

	maxIdempotencyBodyBytes = 1 << 20 // 1 MiB
)

// IdempotencyStore persists idempotency keys per branch.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, branchID, key, userID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, branchID, key string, statusCode int, contentType string, response []byte) error
	FailKey(ctx context.Context, branchID, key string, statusCode int, contentType string, response []byte) error
	ReleaseKey(ctx context.Context, branchID, key string) error
}

// recorder keeps a copy of the response body for replay.
type recorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// Idempotency middleware replays the stored response for a repeated
// X-Idempotency-Key. It must run after Scope: keys belong to a branch.
//
// Successful responses are stored for replay, client errors are stored as
// failures, and server errors release the key so the request may be retried.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		sc := GetScope(c)
		if err := sc.RequireBranch(); err != nil {
			abortWith(c, err)
			return
		}
		branchID := sc.BranchID.String()

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
		if err != nil {
			abortWith(c, apperror.NewValidation("unreadable request body"))
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			abortWith(c, appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])
		operation := c.Request.Method + " " + c.Request.URL.Path

		ctx := c.Request.Context()
		replay, err := store.AcquireKey(ctx, branchID, key, sc.UserID, operation, requestHash)
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			abortWith(c, err)
			return
		}
		if replay != nil {
			c.Header(HeaderIdempotencyReplayed, "true")
			if replay.StatusCode == http.StatusNoContent {
				c.Status(http.StatusNoContent)
			} else {
				c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			}
			c.Abort()
			return
		}

		rec := &recorder{ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()
		WriteError(c)

		// the outcome must be stored even if the client went away
		finishCtx := context.WithoutCancel(ctx)
		status := rec.Status()
		contentType := rec.Header().Get("Content-Type")

		var finishErr error
		switch {
		case status >= http.StatusInternalServerError:
			finishErr = store.ReleaseKey(finishCtx, branchID, key)
		case status >= http.StatusBadRequest:
			finishErr = store.FailKey(finishCtx, branchID, key, status, contentType, rec.body.Bytes())
		default:
			finishErr = store.CompleteKey(finishCtx, branchID, key, status, contentType, rec.body.Bytes())
		}
		if finishErr != nil {
			logger.Error(ctx, "finish idempotency key", "key", key, "status", status, "error", finishErr)
		}
	}
}
