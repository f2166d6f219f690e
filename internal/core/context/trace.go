package context

import (
	"context"

	"github.com/google/uuid"
)

// Origin names the surface that started a unit of work.
type Origin string

const (
	OriginHTTP   Origin = "http"
	OriginWorker Origin = "worker"
	OriginCLI    Origin = "cli"
)

// Trace identifies one unit of work (an HTTP request, a sweep, a CLI
// command) across log lines, toasts and error payloads.
type Trace struct {
	// TraceID is the otel trace id when a span is recording, a uuid otherwise
	TraceID   string
	RequestID string
	Origin    Origin
}

type traceKey struct{}

// NewTrace returns a Trace with fresh ids for work not started by a request.
func NewTrace(origin Origin) Trace {
	return Trace{
		TraceID:   uuid.NewString(),
		RequestID: uuid.NewString(),
		Origin:    origin,
	}
}

// WithTrace stores t in ctx.
func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// TraceFrom returns the Trace stored in ctx.
func TraceFrom(ctx context.Context) (Trace, bool) {
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}

// RequestID returns the request id carried by ctx, or "".
func RequestID(ctx context.Context) string {
	t, _ := TraceFrom(ctx)
	return t.RequestID
}
