package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const staleClientAge = 10 * time.Minute

// rateLimiter is a fixed-window per-IP limiter. Counters reset a minute after
// the first request in the window; stale entries are swept periodically.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	limit   int
}

type clientWindow struct {
	windowStart time.Time
	requests    int
}

func newRateLimiter(requestsPerMinute int, cleanupInterval time.Duration) *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   requestsPerMinute,
	}
	go rl.cleanupLoop(cleanupInterval)
	return rl
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.windowStart) > time.Minute {
		rl.clients[clientIP] = &clientWindow{windowStart: now, requests: 1}
		return true
	}

	client.requests++
	return client.requests <= rl.limit
}

func (rl *rateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-staleClientAge)
		rl.mu.Lock()
		for ip, client := range rl.clients {
			if client.windowStart.Before(cutoff) {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects clients exceeding requestsPerMinute with 429. Applied to
// the auth and upload route groups, which are the abuse-prone surfaces.
func RateLimit(requestsPerMinute int) gin.HandlerFunc {
	rl := newRateLimiter(requestsPerMinute, 5*time.Minute)
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}
