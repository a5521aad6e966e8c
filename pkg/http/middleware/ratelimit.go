package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// KeyLimiter admits one request for key when capacity allows.
type KeyLimiter interface {
	Allow(key string, capacity, refillPerSec float64) bool
}

// RateLimit limits requests per client IP with a token bucket sized to
// requestsPerMinute. Requests over the limit get a 429.
func RateLimit(limiter KeyLimiter, requestsPerMinute float64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !limiter.Allow(ip, requestsPerMinute, requestsPerMinute/60.0) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": "Rate limit exceeded.",
				})
			}
			return next(c)
		}
	}
}
