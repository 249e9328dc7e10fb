package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bomatic/bomatic-server/internal/logger"
)

// RequestLogger returns middleware that logs every request with method,
// path, status, and latency. Health-check paths are silently skipped.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isHealthEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		fields := map[string]interface{}{
			"method":  c.Request.Method,
			"path":    path,
			"status":  status,
			"latency": latency.String(),
			"client":  c.ClientIP(),
		}
		if id := c.GetString(ContextRequestID); id != "" {
			fields[logger.FieldRequestID] = id
		}

		switch {
		case status >= 500:
			log.Error("Request failed", fields)
		case status >= 400:
			log.Warn("Request rejected", fields)
		default:
			log.Info("Request handled", fields)
		}
	}
}

func isHealthEndpoint(path string) bool {
	for _, p := range []string{"/health", "/ready", "/alive"} {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
