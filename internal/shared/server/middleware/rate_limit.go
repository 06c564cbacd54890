package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultRateLimitGroup = "MUTATE"

// RateLimitRule is a token bucket shape: sustained rate in tokens per
// second plus a burst ceiling.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimitConfig maps requests to named groups, each with its own rule.
// Requests whose group has no rule pass through unlimited.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

// RateLimiter holds per-principal token buckets. The now func is
// injectable for tests.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	now     func() time.Time
}

type tokenBucket struct {
	tokens   float64
	refilled time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{buckets: make(map[string]*tokenBucket), now: now}
}

// RateLimit enforces the configured rules, keyed by caller identity
// (falling back to client IP) and group.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, limited := cfg.Rules[group]
		if !limited {
			c.Next()
			return
		}

		caller := strings.TrimSpace(UserIDFromContext(c))
		if caller == "" {
			caller = strings.TrimSpace(c.ClientIP())
		}

		ok, retryAfter := cfg.Limiter.Take(caller+"|"+group, rule)
		if ok {
			c.Next()
			return
		}

		retryAfterMs := int(retryAfter / time.Millisecond)
		if retryAfterMs <= 0 {
			retryAfterMs = 1000
		}
		seconds := int(math.Ceil(float64(retryAfterMs) / 1000.0))
		if seconds <= 0 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":        "rate_limited",
			"retryAfterMs": retryAfterMs,
		})
		c.Abort()
	}
}

// Take consumes one token from the bucket for key, creating the bucket
// full on first sight. When empty it reports how long until a token
// accrues.
func (l *RateLimiter) Take(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}

	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: float64(rule.Burst), refilled: now}
		l.buckets[key] = b
	}
	if elapsed := now.Sub(b.refilled).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(rule.Burst), b.tokens+elapsed*rule.Rate)
		b.refilled = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := (1 - b.tokens) / rule.Rate
	if wait < 0 {
		wait = 0
	}
	return false, time.Duration(math.Ceil(wait*1000.0)) * time.Millisecond
}
