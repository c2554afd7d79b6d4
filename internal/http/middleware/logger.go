package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"basegraph.app/studiobot/internal/mapper"
)

const healthRoute = "/health"

// Logger writes one line per request once the handler is done, so log fields the handler put
// on the request context (issue number, action) are included. Health probes log at debug.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			slog.Int("response_bytes", c.Writer.Size()),
		}
		if event := c.GetHeader(mapper.HeaderEvent); event != "" {
			attrs = append(attrs, slog.String("github_event", event))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		slog.LogAttrs(c.Request.Context(), requestLevel(route, status), "request", attrs...)
	}
}

func requestLevel(route string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case route == healthRoute:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
