// Package trace carries request correlation ids through context.
package trace

import (
	"context"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Info contains request tracing information.
type Info struct {
	TraceID   string
	RequestID string
}

type infoKey struct{}

// With adds Info to context.
func With(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, infoKey{}, info)
}

// Get returns Info from context. When none was stored but an otel span is
// active, the span's trace id is used.
func Get(ctx context.Context) *Info {
	if v, ok := ctx.Value(infoKey{}).(*Info); ok {
		return v
	}
	if sc := oteltrace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return &Info{TraceID: sc.TraceID().String()}
	}
	return nil
}

// RequestID returns the request id from context or empty string.
func RequestID(ctx context.Context) string {
	if t := Get(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// New creates Info for an incoming request. An inbound request id is kept
// so clients can correlate retries.
func New(requestID string) *Info {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return &Info{
		TraceID:   uuid.New().String(),
		RequestID: requestID,
	}
}
