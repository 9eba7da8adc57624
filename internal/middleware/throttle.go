package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Throttle is a process-wide overload guard applied before per-client
// admission. It protects the gateway itself; fairness between clients is
// the quota registry's job.
func Throttle(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if burst <= 0 {
		burst = int(rps)
		if burst == 0 {
			burst = 1
		}
	}

	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "SERVICE_OVERLOADED",
				"message": "Service is temporarily overloaded. Please retry shortly.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
