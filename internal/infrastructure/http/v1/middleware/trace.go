package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	appctx "portfolio/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

var tracer = otel.Tracer("portfolio/http")

// Trace opens the server span that lifecycle spans nest under and stores
// the request's Trace in the request context. The trace id comes from the
// span when a tracer provider is installed, then from X-Trace-ID.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
			))
		defer span.End()

		t := appctx.Trace{
			TraceID:   c.GetHeader(HeaderTraceID),
			RequestID: c.GetHeader(HeaderRequestID),
			Origin:    appctx.OriginHTTP,
		}
		if sc := span.SpanContext(); sc.HasTraceID() {
			t.TraceID = sc.TraceID().String()
		}
		if t.TraceID == "" {
			t.TraceID = uuid.NewString()
		}
		if t.RequestID == "" {
			t.RequestID = uuid.NewString()
		}
		span.SetAttributes(attribute.String("request.id", t.RequestID))

		c.Request = c.Request.WithContext(appctx.WithTrace(ctx, t))
		c.Header(HeaderRequestID, t.RequestID)
		c.Header(HeaderTraceID, t.TraceID)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}
