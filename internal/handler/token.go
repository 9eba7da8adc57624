package handler

import (
	"net/http"

	"github.com/chromapages/support-gateway/internal/apierror"
	"github.com/chromapages/support-gateway/internal/auth"
	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	tokens *auth.TokenService
}

func NewTokenHandler(tokens *auth.TokenService) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// Issue exchanges a valid API key for a bearer token carrying the key's
// tier and scope.
func (h *TokenHandler) Issue(c *gin.Context) {
	var req struct {
		APIKey string `json:"api_key" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.tokens.Issue(c.Request.Context(), req.APIKey)
	if err != nil {
		status, body := apierror.ToResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, token)
}
