package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/source"
)

const (
	HeaderRequestID = "X-Request-ID"

	ctxKeyRequestID = "requestId"
	ctxKeySource    = "leadSource"
)

// RequestID propagates the caller's request id or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func RequestLogger(log logger.Logger) gin.HandlerFunc {
	log = log.WithFields(map[string]interface{}{"component": "http"})
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"requestId":  c.GetString(ctxKeyRequestID),
		}
		if src := c.GetString(ctxKeySource); src != "" {
			fields["source"] = src
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request failed", fields)
		case c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics":
			log.Debug("request", fields)
		default:
			log.Info("request", fields)
		}
	}
}

// RequestMetrics observes latency per matched route, not per raw path.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// SourceGuard rejects submissions from a front-end the policy does not know.
// Per-category blocks are enforced by the intake service.
func SourceGuard(policy *source.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(source.HeaderName)
		if header != "" && !policy.Known(header) {
			c.Error(apperrors.NewSourceBlockedError(source.Canonical(header), "any"))
			c.Abort()
			return
		}
		if header != "" {
			c.Set(ctxKeySource, source.Canonical(header))
		}
		c.Next()
	}
}
