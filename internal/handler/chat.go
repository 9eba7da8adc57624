package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/chromapages/support-gateway/internal/agent"
	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	dispatcher agent.Dispatcher
}

func NewChatHandler(dispatcher agent.Dispatcher) *ChatHandler {
	return &ChatHandler{dispatcher: dispatcher}
}

// Chat forwards a support message to the requested specialist agent. The
// admission middleware has already debited quota by the time this runs.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req agent.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.AgentType == "" {
		req.AgentType = agent.TypeGreeter
	}

	if !scopeAllows(c.GetString("scope"), req.AgentType) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "INSUFFICIENT_SCOPE",
			"message": "Your scope does not allow this agent",
		})
		return
	}

	c.Set("agent_type", req.AgentType)

	resp, err := h.dispatcher.Dispatch(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, agent.ErrUnknownAgent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, agent.ErrAgentsUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "AGENTS_UNAVAILABLE",
				"message": "Agents are temporarily unavailable. Please try again later.",
			})
			return
		}

		log.Printf("[%s] agent dispatch failed: %v", c.GetString("request_id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "INTERNAL_SERVER_ERROR",
			"message": "An unexpected error occurred",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// scopeAllows decides which agents a scope can reach. Read-only scope is
// limited to the greeter; agents:* reaches everything. Requests with no
// scope (unauthenticated traffic) get greeter access only.
func scopeAllows(scope, agentType string) bool {
	switch scope {
	case "agents:*":
		return true
	case "agents:read", "":
		return agentType == agent.TypeGreeter
	default:
		return false
	}
}
