package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Recovery answers a handler panic with 500 and the panic text, the reply the webhook handler
// gives for its own errors, and marks the request span as failed. http.ErrAbortHandler is
// re-raised so net/http can drop the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			ctx := c.Request.Context()
			err := fmt.Errorf("%v", rec)

			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")

			slog.ErrorContext(ctx, "handler panicked",
				"error", err,
				"route", c.FullPath(),
				"stack", string(debug.Stack()))

			c.Abort()
			c.String(http.StatusInternalServerError, "Error occurred: %s", err)
		}()
		c.Next()
	}
}
