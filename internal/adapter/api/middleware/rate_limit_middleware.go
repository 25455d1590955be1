package middleware

import (
	"log"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/pkg/errors"
	"foodshare/pkg/response"
)

// RateLimit throttles requests per client IP with the HTTP policy of
// limiter.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			allowed, wait := limiter.Allow("ip:"+ip, ratelimit.ActionHTTP)
			if !allowed {
				log.Printf("RATE LIMIT: Blocked request from IP %s (retry in %v)", ip, wait)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}

			return next(c)
		}
	}
}
