package handler

import (
	"net/http"

	"github.com/chromapages/support-gateway/internal/apierror"
	"github.com/chromapages/support-gateway/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

type QuotaHandler struct {
	registry *ratelimit.Registry
}

func NewQuotaHandler(registry *ratelimit.Registry) *QuotaHandler {
	return &QuotaHandler{registry: registry}
}

// Remaining reports the caller's current quota levels without consuming
// anything beyond the admission cost of this request itself.
func (h *QuotaHandler) Remaining(c *gin.Context) {
	clientID := c.GetString("client_id")
	tier := c.GetString("tier")

	limits, err := h.registry.Limits(tier)
	if err != nil {
		status, body := apierror.ToResponse(err)
		c.JSON(status, body)
		return
	}

	quota, err := h.registry.Remaining(clientID, tier)
	if err != nil {
		status, body := apierror.ToResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tier":                          tier,
		"requests_per_minute":           limits.RequestsPerMinute,
		"requests_per_minute_remaining": quota.MinuteRemaining,
		"requests_per_hour":             limits.RequestsPerHour,
		"requests_per_hour_remaining":   quota.HourRemaining,
	})
}
