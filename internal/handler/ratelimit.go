package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Per-minute request budgets per endpoint class: strict on auth to slow
// brute force, tight on anonymous writes to curb spam.
const (
	LimitLogin     = 5
	LimitRegister  = 3
	LimitPublicGet = 30
	LimitPublicPut = 10
	LimitUpload    = 10
	LimitAnalytics = 20
)

// ipRateLimiter hands out one token bucket per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucketEntry
	limit    rate.Limit
	burst    int
	lastSeen time.Duration
}

type bucketEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newIPRateLimiter(perMinute int) *ipRateLimiter {
	return &ipRateLimiter{
		buckets:  make(map[string]*bucketEntry),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
		lastSeen: 10 * time.Minute,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.buckets[ip]
	if !ok {
		entry = &bucketEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = entry
	}
	entry.seen = now

	// Opportunistic cleanup of idle buckets.
	if len(l.buckets) > 1024 {
		for key, stale := range l.buckets {
			if now.Sub(stale.seen) > l.lastSeen {
				delete(l.buckets, key)
			}
		}
	}

	return entry.limiter.Allow()
}

// RateLimit returns a middleware enforcing the given per-minute budget per
// client IP.
func RateLimit(perMinute int) gin.HandlerFunc {
	limiter := newIPRateLimiter(perMinute)
	return func(c *gin.Context) {
		if !limiter.allow(clientIP(c)) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Has excedido el límite de peticiones. Por favor espera un momento.",
			})
			return
		}
		c.Next()
	}
}
