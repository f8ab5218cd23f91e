package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"receiptflow/pkg/logger"
)

// Logger middleware logs HTTP requests with timing and status.
// Health probes are logged at debug.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		kv := []any{
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"query", query,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.Last().Error())
		}

		l := log.WithContext(c.Request.Context())
		if c.FullPath() == "/health/live" || c.FullPath() == "/health/ready" {
			l.Debugw("http request", kv...)
			return
		}
		l.Infow("http request", kv...)
	}
}
