package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jengzang/activity-tracker-go/pkg/response"
)

// RateLimiter implements a sliding-window limiter per client IP. Only the
// most recently seen clients are tracked; the least recently seen is evicted.
type RateLimiter struct {
	requests *lru.Cache[string, []time.Time]
	mu       sync.Mutex
	limit    int           // Maximum requests per window
	window   time.Duration // Time window
	now      func() time.Time
}

// NewRateLimiter creates a new rate limiter tracking at most clients IPs
func NewRateLimiter(limit int, window time.Duration, clients int) (*RateLimiter, error) {
	cache, err := lru.New[string, []time.Time](clients)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit cache: %w", err)
	}
	return &RateLimiter{
		requests: cache,
		limit:    limit,
		window:   window,
		now:      time.Now,
	}, nil
}

// Allow checks if a request from the given IP is allowed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	times, _ := rl.requests.Get(ip)

	// Remove times older than window
	valid := times[:0]
	for _, t := range times {
		if now.Sub(t) < rl.window {
			valid = append(valid, t)
		}
	}

	// Check if limit exceeded
	if len(valid) >= rl.limit {
		rl.requests.Add(ip, valid)
		return false
	}

	rl.requests.Add(ip, append(valid, now))
	return true
}

// RateLimit middleware limits requests per IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			response.TooManyRequests(c, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}
