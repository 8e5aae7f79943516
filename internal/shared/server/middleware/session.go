package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const sessionIDKey = "sessionId"

// SessionHeader carries the wizard session id on requests whose path has none.
const SessionHeader = "X-Session-Id"

// SetSessionID records the session id handled by the current request.
func SetSessionID(c *gin.Context, id string) {
	if id = strings.TrimSpace(id); id != "" {
		c.Set(sessionIDKey, id)
	}
}

// SessionIDFromContext returns the session id recorded for the request,
// falling back to the :sessionId / :id path params and the session header.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if v := c.GetString(sessionIDKey); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Param("sessionId")); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Param("id")); v != "" {
		return v
	}
	return strings.TrimSpace(c.GetHeader(SessionHeader))
}

const stepTransitionKey = "stepTransition"

// SetStepTransition records a wizard step change for the request log line.
func SetStepTransition(c *gin.Context, transition string) {
	c.Set(stepTransitionKey, transition)
}
