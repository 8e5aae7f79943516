package respond

import (
	"github.com/gin-gonic/gin"

	"resume-wizard/internal/shared/telemetry"
)

// ErrorResponse is the error body returned by every endpoint.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Success *bool       `json:"success,omitempty"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	send(c, status, ErrorResponse{Error: message, Code: code, Details: details})
}

// Failure is Error for write endpoints whose success body is {"success":true}.
// The body additionally carries "success":false.
func Failure(c *gin.Context, status int, code, message string) {
	success := false
	send(c, status, ErrorResponse{Error: message, Code: code, Success: &success})
}

func send(c *gin.Context, status int, body ErrorResponse) {
	code, message := body.Code, body.Error
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if sessionID := c.GetString("sessionId"); sessionID != "" {
		fields["session_id"] = sessionID
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, body)
}
