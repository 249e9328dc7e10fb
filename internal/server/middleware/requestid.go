// Package middleware provides the Gin middleware used by the service.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextRequestID is the Gin context key for the request id.
const ContextRequestID = "request_id"

// RequestID injects a unique X-Request-Id header into every request and
// response, honoring an incoming id when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ContextRequestID, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}
