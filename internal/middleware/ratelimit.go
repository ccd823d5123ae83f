package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nadirsultanli/order-management-system-sub008/internal/rate_limiter"
)

// RateLimit rejects clients that exceed the limiter's window with 429.
func RateLimit(limiter *rate_limiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.IsAllowed(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(int(limiter.Window().Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts, try again later"})
			return
		}
		c.Next()
	}
}
