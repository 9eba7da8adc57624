package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/chromapages/support-gateway/internal/service"
	"github.com/gin-gonic/gin"
)

type UsageHandler struct {
	usage *service.UsageService
}

func NewUsageHandler(usage *service.UsageService) *UsageHandler {
	return &UsageHandler{usage: usage}
}

// Summary returns request counts, average latency and per-tier rejection
// counts for the last N hours (default 24).
func (h *UsageHandler) Summary(c *gin.Context) {
	hours := 24
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 24*30 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be between 1 and 720"})
			return
		}
		hours = parsed
	}

	to := time.Now()
	from := to.Add(-time.Duration(hours) * time.Hour)

	ctx := c.Request.Context()
	summary, err := h.usage.GetSummary(ctx, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":    from,
		"to":      to,
		"summary": summary,
	})
}
