package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-wizard/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		telemetry.Info("request.complete", map[string]any{
			"request_id":      RequestIDFromContext(c),
			"method":          c.Request.Method,
			"path":            c.Request.URL.Path,
			"status":          c.Writer.Status(),
			"step_transition": c.GetString(stepTransitionKey),
			"duration_ms":     float64(latency.Microseconds()) / 1000.0,
			"session_id":      SessionIDFromContext(c),
			"client_ip":       c.ClientIP(),
			"user_agent":      c.Request.UserAgent(),
		})
	}
}
