package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/metrics"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts hits per key in a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// WindowCounter is the Redis primitive the RedisLimiter needs.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisLimiter shares counters across API instances.
type RedisLimiter struct {
	counter WindowCounter
	prefix  string
	limit   int
	window  time.Duration
}

func NewRedisLimiter(counter WindowCounter, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{counter: counter, prefix: prefix, limit: limit, window: window}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, ttl, err := r.counter.IncrWindow(ctx, "ratelimit:"+r.prefix+":"+key, r.window)
	if err != nil {
		return Decision{}, err
	}
	return decide(int(count), r.limit, ttl), nil
}

// MemoryLimiter is a single-process limiter for when Redis is unavailable.
type MemoryLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	attempts map[string]*attemptInfo
	now      func() time.Time
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:    limit,
		window:   window,
		attempts: make(map[string]*attemptInfo),
		now:      time.Now,
	}
}

func (r *MemoryLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	info, exists := r.attempts[key]
	// Reset if window expired
	if !exists || now.Sub(info.firstAt) >= r.window {
		info = &attemptInfo{firstAt: now}
		r.attempts[key] = info
	}
	info.count++
	return decide(info.count, r.limit, r.window-now.Sub(info.firstAt)), nil
}

// Cleanup drops expired windows every interval until ctx is done.
func (r *MemoryLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			now := r.now()
			for key, info := range r.attempts {
				if now.Sub(info.firstAt) >= r.window {
					delete(r.attempts, key)
				}
			}
			r.mu.Unlock()
		}
	}
}

func decide(count, limit int, retryAfter time.Duration) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= limit,
		Limit:      limit,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}
}

// RateLimitMiddleware limits requests per client IP. Limiter errors let the
// request through. Rejections use the flat form response body.
func RateLimitMiddleware(limiter Limiter, route string, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := limiter.Allow(c.Request.Context(), route+":"+c.ClientIP())
		if err != nil {
			log.Warn().Err(err).Str("route", route).Msg("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			m.RateLimited(route)
			log.Warn().Str("route", route).Str("ip", c.ClientIP()).Msg("Rate limit exceeded")
			utils.FormError(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
