package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/bluele/gcache"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ──────────────────────────────────────────────────────────────────────
// Per-IP Token Bucket Rate Limiter
//
// Each client IP gets its own x/time/rate limiter with a configurable
// capacity and refill rate. When the bucket is empty the request receives
// HTTP 429 with a Retry-After header indicating when to try again.
//
// Limiters live in an LRU cache so transient IPs cannot grow memory without
// bound. Entries expire cleanupIdleDuration after creation and are rebuilt
// with a full bucket on the next request.
// ──────────────────────────────────────────────────────────────────────

const (
	cleanupIdleDuration = 10 * time.Minute
	maxTrackedClients   = 10000
)

// RateLimiter holds per-IP state.
type RateLimiter struct {
	perMin  int
	burst   int
	clients gcache.Cache
}

// NewRateLimiter creates a rate limiter allowing `ratePerMin` requests per
// minute per IP, with a burst capacity of `burst` requests.
func NewRateLimiter(ratePerMin, burst int) *RateLimiter {
	rl := &RateLimiter{perMin: ratePerMin, burst: burst}
	limit := rate.Limit(float64(ratePerMin) / 60.0)
	rl.clients = gcache.New(maxTrackedClients).
		LRU().
		Expiration(cleanupIdleDuration).
		LoaderFunc(func(any) (any, error) {
			return rate.NewLimiter(limit, burst), nil
		}).
		Build()
	return rl
}

func (rl *RateLimiter) allow(ip string) (bool, time.Duration) {
	v, err := rl.clients.Get(ip)
	if err != nil {
		// The loader never fails; treat a cache error as allowed.
		return true, 0
	}
	limiter := v.(*rate.Limiter)

	now := time.Now()
	r := limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Middleware returns a Gin handler that enforces the rate limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := rl.allow(c.ClientIP())
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"code":       "rate_limited",
				"retryAfter": retryAfter.String(),
				"limit":      strconv.Itoa(rl.perMin) + " requests/minute per IP",
			})
			return
		}
		c.Next()
	}
}
