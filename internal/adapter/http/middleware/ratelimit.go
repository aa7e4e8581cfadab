package middleware

import (
	"fmt"
	"strconv"
	"time"

	"tracebloom/internal/core/ports"
	"tracebloom/pkg/apperror"
	"tracebloom/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule defines a fixed-window rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules returns the rate limits per endpoint group.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"auth_signup":  {Limit: 5, Window: time.Hour},
		"auth_login":   {Limit: 10, Window: time.Minute},
		"auth_wallet":  {Limit: 10, Window: time.Minute},
		"batch_write":  {Limit: 30, Window: time.Minute},
		"batch_read":   {Limit: 120, Window: time.Minute},
		"ledger_write": {Limit: 30, Window: time.Minute},
		"ledger_read":  {Limit: 60, Window: time.Minute},
	}
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
// A store error degrades to allowing the request rather than failing closed.
func RateLimiter(store ports.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", extractIdentifier(c), group)

		count, err := store.Increment(c.Request.Context(), key, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		remaining := rule.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(rule.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > rule.Limit {
			c.Header("Retry-After", strconv.FormatInt(int64(rule.Window.Seconds()), 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier determines the rate limit key source: the authenticated
// identity when present, otherwise the client IP.
func extractIdentifier(c *gin.Context) string {
	if id, exists := c.Get(CtxIdentityID); exists {
		return fmt.Sprintf("%v", id)
	}
	return c.ClientIP()
}
