package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter_AllowWithinLimit(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiterWithNow(2, time.Minute, func() time.Time { return now })

	if !rl.Allow("ip") || !rl.Allow("ip") {
		t.Fatalf("expected first two requests allowed")
	}
	if rl.Allow("ip") {
		t.Fatalf("expected third request blocked")
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiterWithNow(1, time.Minute, func() time.Time { return now })

	if !rl.Allow("ip") {
		t.Fatalf("expected first request allowed")
	}
	if rl.Allow("ip") {
		t.Fatalf("expected second request blocked")
	}

	now = now.Add(2 * time.Minute)
	if !rl.Allow("ip") {
		t.Fatalf("expected request allowed after window reset")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiterWithNow(1, time.Minute, func() time.Time { return now })

	if !rl.Allow("a") {
		t.Fatalf("expected a allowed")
	}
	if !rl.Allow("b") {
		t.Fatalf("expected b allowed")
	}
}

func TestRateLimiter_PrunesExpiredClients(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiterWithNow(1, time.Minute, func() time.Time { return now })

	rl.Allow("a")
	rl.Allow("b")

	now = now.Add(3 * time.Minute)
	rl.Allow("c")
	if len(rl.clients) != 1 {
		t.Fatalf("expected expired clients pruned, got %d entries", len(rl.clients))
	}
}

func TestRateLimiter_MiddlewareRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, time.Minute)

	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
}
