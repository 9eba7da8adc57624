package middleware

import (
	"strconv"

	"github.com/chromapages/support-gateway/internal/apierror"
	"github.com/chromapages/support-gateway/internal/auth"
	"github.com/chromapages/support-gateway/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// Admission gates every request through the quota registry. Identity and
// tier resolution are separate steps: the client id always comes from the
// fallback chain or a verified token, while the tier stays at defaultTier
// unless an upstream verified token raised it.
//
// The quota is consumed before the downstream handler runs; there is no
// rollback. Admitted responses carry the four X-RateLimit-* headers
// computed after consumption.
func Admission(registry *ratelimit.Registry, defaultTier string) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := auth.ClientID(
			c.GetHeader("X-API-Key"),
			c.GetHeader("X-Forwarded-For"),
			c.Request.RemoteAddr,
		)
		tier := defaultTier

		if value, exists := c.Get("token_claims"); exists {
			if claims, ok := value.(auth.Claims); ok {
				clientID = claims.APIKey
				tier = claims.Tier
			}
		}

		c.Set("client_id", clientID)
		c.Set("tier", tier)

		if err := registry.Allow(clientID, tier); err != nil {
			status, body := apierror.ToResponse(err)
			c.JSON(status, body)
			c.Abort()
			return
		}

		limits, err := registry.Limits(tier)
		if err != nil {
			status, body := apierror.ToResponse(err)
			c.JSON(status, body)
			c.Abort()
			return
		}

		// Remaining counts are read after the debit above.
		if quota, err := registry.Remaining(clientID, tier); err == nil {
			c.Header("X-RateLimit-Limit-Minute", strconv.Itoa(limits.RequestsPerMinute))
			c.Header("X-RateLimit-Remaining-Minute", strconv.Itoa(quota.MinuteRemaining))
			c.Header("X-RateLimit-Limit-Hour", strconv.Itoa(limits.RequestsPerHour))
			c.Header("X-RateLimit-Remaining-Hour", strconv.Itoa(quota.HourRemaining))
		}

		c.Next()
	}
}
