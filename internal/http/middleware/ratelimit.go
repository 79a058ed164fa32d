// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the per-client token-bucket rate limiter. Completion
// calls are the expensive resource here, so verified clients are limited per
// session token while unverified traffic shares a bucket per client IP.
//
// The limiter is process-local and meant for edge-level abuse and cost
// control in a single-instance deployment; a horizontally scaled setup would
// need a shared store behind it.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// HeaderSessionToken is the header clients use to present their session
// token outside the JSON body. The rate limiter keys on it and the redacting
// logger masks it.
const HeaderSessionToken = "X-Session-Token"

// keyFunc maps a request to a rate-limit bucket identity.
type keyFunc func(*gin.Context) string

// KeyBySessionOrIP prefers the session token from X-Session-Token and falls
// back to the client IP. Keys are prefixed ("session:", "ip:") so the two
// namespaces cannot collide.
func KeyBySessionOrIP() keyFunc {
	return func(c *gin.Context) string {
		if s := c.GetHeader(HeaderSessionToken); s != "" {
			return "session:" + s
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per identity. Buckets are created on
// demand and idle ones are evicted opportunistically during lookups so the
// map stays bounded. Safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter builds a limiter replenishing rps tokens per second with
// the given burst size. A burst <= 0 is coerced to 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns the limiter for key, creating it if absent. Every ~5000
// lookups it sweeps idle entries first, so a stale bucket can be evicted even
// when it is the one being fetched.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler enforces the per-key limit, answering 429 with the standard error
// envelope and a Retry-After header when the bucket is empty.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
