package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// PrivateCache lets the caller's own client reuse a per-device response for maxAge.
func PrivateCache(maxAge time.Duration) gin.HandlerFunc {
	value := fmt.Sprintf("private, max-age=%d", int(maxAge/time.Second))
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Header("Vary", "Authorization")
		c.Next()
	}
}

// NoStore marks responses that must never be cached, such as issued tokens.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
