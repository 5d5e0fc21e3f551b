package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter is a sliding-window request counter keyed by client IP.
type RateLimiter struct {
	tokens     map[string][]time.Time
	maxRequest int
	duration   time.Duration
	now        func() time.Time
	mu         sync.Mutex
}

func NewRateLimiter(maxRequest int, duration time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     make(map[string][]time.Time),
		maxRequest: maxRequest,
		duration:   duration,
		now:        time.Now,
	}
}

// window drops the expired head of ip's timestamps (must hold lock).
func (rl *RateLimiter) window(ip string, now time.Time) []time.Time {
	tokens := rl.tokens[ip]
	i := 0
	for i < len(tokens) && now.Sub(tokens[i]) >= rl.duration {
		i++
	}
	return tokens[i:]
}

// take records a request from ip and reports how many remain in the window.
func (rl *RateLimiter) take(ip string) (remaining int, reset time.Time, ok bool) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	tokens := rl.window(ip, now)
	if len(tokens) >= rl.maxRequest {
		rl.tokens[ip] = tokens
		return 0, tokens[0].Add(rl.duration), false
	}

	rl.tokens[ip] = append(tokens, now)
	return rl.maxRequest - len(tokens) - 1, now.Add(rl.duration), true
}

// Sweep forgets clients with no request in the current window and returns
// how many were dropped.
func (rl *RateLimiter) Sweep() int {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	dropped := 0
	for ip := range rl.tokens {
		if tokens := rl.window(ip, now); len(tokens) > 0 {
			rl.tokens[ip] = tokens
		} else {
			delete(rl.tokens, ip)
			dropped++
		}
	}
	return dropped
}

// StartSweeper runs Sweep once per window until ctx is cancelled. It does
// nothing when limiting is disabled.
func (rl *RateLimiter) StartSweeper(ctx context.Context) {
	if rl.maxRequest <= 0 || rl.duration <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(rl.duration)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := rl.Sweep(); n > 0 {
					logger.GetLogger().Debug("Rate limiter swept idle clients", zap.Int("dropped", n))
				}
			}
		}
	}()
}

// Handler enforces the limit. A non-positive maxRequest disables it.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.maxRequest <= 0 || rl.duration <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		remaining, reset, ok := rl.take(ip)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.maxRequest))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !ok {
			logger.GetLogger().Warn("Rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("max_requests", rl.maxRequest),
				zap.Duration("duration", rl.duration),
				zap.Time("retry_after", reset),
			)
			c.Header("Retry-After", strconv.Itoa(int(reset.Sub(rl.now()).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, constants.BuildErrorResponse(constants.MsgTooManyRequests, nil))
			return
		}

		c.Next()
	}
}

// RateLimit builds a limiter whose idle clients are swept until ctx is
// cancelled.
func RateLimit(ctx context.Context, maxRequest int, duration time.Duration) gin.HandlerFunc {
	rl := NewRateLimiter(maxRequest, duration)
	rl.StartSweeper(ctx)
	return rl.Handler()
}
