package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter caps requests per client IP over a fixed window. It guards
// the credential endpoints against password guessing, so the window is
// coarse and the state is per-process.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*windowCount
	limit     int
	window    time.Duration
	nextPrune time.Time
	now       func() time.Time
}

type windowCount struct {
	count    int
	expireAt time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return NewRateLimiterWithNow(limit, window, time.Now)
}

func NewRateLimiterWithNow(limit int, window time.Duration, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*windowCount),
		limit:     limit,
		window:    window,
		nextPrune: now().Add(window),
		now:       now,
	}
}

// Allow counts a request against the client's current window. Expired
// windows of other clients are pruned in passing, so the map stays
// bounded without a background goroutine.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.After(rl.nextPrune) {
		for key, w := range rl.clients {
			if now.After(w.expireAt) {
				delete(rl.clients, key)
			}
		}
		rl.nextPrune = now.Add(rl.window)
	}

	w, ok := rl.clients[client]
	if !ok || now.After(w.expireAt) {
		rl.clients[client] = &windowCount{count: 1, expireAt: now.Add(rl.window)}
		return true
	}
	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// Middleware rejects requests over the limit with 429 before the handler
// runs.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
