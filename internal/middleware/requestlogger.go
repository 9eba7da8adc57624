package middleware

import (
	"context"
	"log"
	"time"

	"github.com/chromapages/support-gateway/internal/models"
	"github.com/chromapages/support-gateway/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Buffered channel for async request logging
var logChannel chan models.RequestLog

// InitRequestLogger starts the background worker that batch-inserts
// request logs. Logging must never block or fail a request.
func InitRequestLogger(repo *repository.RequestLogRepository, bufferSize int) {
	logChannel = make(chan models.RequestLog, bufferSize)

	go func() {
		batch := make([]models.RequestLog, 0, 100)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		flush := func() {
			if len(batch) == 0 {
				return
			}
			if err := repo.CreateBatch(context.Background(), batch); err != nil {
				log.Printf("failed to insert request logs: %v", err)
			}
			batch = make([]models.RequestLog, 0, 100)
		}

		for {
			select {
			case entry := <-logChannel:
				batch = append(batch, entry)
				if len(batch) >= 100 {
					flush()
				}
			case <-ticker.C:
				flush()
			}
		}
	}()
}

// RequestLogger records every request, including rejected ones, so usage
// reporting can count 429s per tier.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		if logChannel == nil {
			return
		}

		duration := time.Since(start)

		var apiKeyID *uuid.UUID
		if value, exists := c.Get("api_key_id"); exists {
			if id, ok := value.(uuid.UUID); ok {
				apiKeyID = &id
			}
		}

		entry := models.RequestLog{
			Timestamp:      start,
			APIKeyID:       apiKeyID,
			ClientID:       c.GetString("client_id"),
			Tier:           c.GetString("tier"),
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMs: int(duration.Milliseconds()),
			IPAddress:      c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
			AgentType:      c.GetString("agent_type"),
		}

		select {
		case logChannel <- entry:
		default:
			// Channel full, drop the entry rather than block the request
		}
	}
}
