// Package middleware holds the gin middleware chain of the lifecycle API.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"portfolio/internal/core/apperror"
	appctx "portfolio/internal/core/context"
	"portfolio/pkg/logger"
)

// Recovery turns a panic in a handler into an INTERNAL_ERROR response. The
// stack goes to the log and the span, never to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}

			cause, ok := p.(error)
			if !ok {
				cause = fmt.Errorf("%v", p)
			}
			if errors.Is(cause, http.ErrAbortHandler) {
				panic(p)
			}

			ctx := c.Request.Context()
			span := trace.SpanFromContext(ctx)
			span.RecordError(cause)
			span.SetStatus(codes.Error, "panic")

			logger.Error(ctx, "handler panicked",
				"route", c.FullPath(),
				"error", cause,
				"stack", string(debug.Stack()),
			)

			// the handlers after Recovery were unwound, ErrorHandler included
			writeError(c, apperror.NewInternal(fmt.Errorf("panic: %w", cause)).
				WithDetail("request_id", appctx.RequestID(ctx)))
		}()
		c.Next()
	}
}
