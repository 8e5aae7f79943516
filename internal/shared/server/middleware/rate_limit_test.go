package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitKeysBySession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	r := gin.New()
	r.POST("/api/generate-resume", RateLimit(RateLimitRule{Rate: 1, Burst: 2}, limiter), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	send := func(session string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/generate-resume", nil)
		req.Header.Set(SessionHeader, session)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("session-a"); code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, code)
		}
	}
	if code := send("session-a"); code != http.StatusTooManyRequests {
		t.Fatalf("third request expected 429, got %d", code)
	}
	if code := send("session-b"); code != http.StatusOK {
		t.Fatalf("other session expected 200, got %d", code)
	}

	now = now.Add(time.Second)
	if code := send("session-a"); code != http.StatusOK {
		t.Fatalf("after refill expected 200, got %d", code)
	}
}

func TestRateLimit429IncludesRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	r := gin.New()
	r.GET("/api/limited", RateLimit(RateLimitRule{Rate: 0.5, Burst: 1}, limiter), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	resp1 := httptest.NewRecorder()
	r.ServeHTTP(resp1, httptest.NewRequest(http.MethodGet, "/api/limited", nil))
	if resp1.Code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", resp1.Code)
	}

	resp2 := httptest.NewRecorder()
	r.ServeHTTP(resp2, httptest.NewRequest(http.MethodGet, "/api/limited", nil))
	if resp2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp2.Code)
	}
	if got := resp2.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp2.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["code"] != "rate_limited" {
		t.Fatalf("expected code=rate_limited, got %v", payload["code"])
	}
	details, ok := payload["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected details object")
	}
	if _, ok := details["retryAfterMs"]; !ok {
		t.Fatalf("expected retryAfterMs in details")
	}
}

func TestAllowDisabledRule(t *testing.T) {
	limiter := NewRateLimiter(nil)
	for i := 0; i < 5; i++ {
		if ok, _ := limiter.Allow("k", RateLimitRule{}); !ok {
			t.Fatalf("zero rule should never limit")
		}
	}
}

func TestRateLimitByClientIPIgnoresSessionHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	r := gin.New()
	r.POST("/api/sessions", RateLimitBy(RateLimitRule{Rate: 1, Burst: 2}, limiter, ClientIPKey), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	send := func(session, remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
		req.Header.Set(SessionHeader, session)
		req.RemoteAddr = remote
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}

	if code := send("a", "10.0.0.1:1234"); code != http.StatusCreated {
		t.Fatalf("first request expected 201, got %d", code)
	}
	if code := send("b", "10.0.0.1:1234"); code != http.StatusCreated {
		t.Fatalf("second request expected 201, got %d", code)
	}
	if code := send("c", "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("rotating session ids should not bypass the limit, got %d", code)
	}
	if code := send("d", "10.0.0.2:1234"); code != http.StatusCreated {
		t.Fatalf("other client expected 201, got %d", code)
	}
}
