package middleware

import (
	"net/http"
	"strings"

	"github.com/chromapages/support-gateway/internal/apierror"
	"github.com/chromapages/support-gateway/internal/auth"
	"github.com/chromapages/support-gateway/internal/service"
	"github.com/gin-gonic/gin"
)

// BearerToken verifies an Authorization bearer token when one is present
// and attaches its claims for the admission layer. Requests without a
// token pass through and are limited at the default tier; a token that is
// present but invalid is rejected outright.
func BearerToken(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			status, body := apierror.ToResponse(apierror.New(
				apierror.KindAuthentication,
				"Invalid authorization header format. Use: Bearer <token>"))
			c.JSON(status, body)
			c.Abort()
			return
		}

		claims, err := tokens.Verify(parts[1])
		if err != nil {
			status, body := apierror.ToResponse(err)
			c.JSON(status, body)
			c.Abort()
			return
		}

		c.Set("token_claims", claims)
		c.Set("scope", claims.Scope)

		c.Next()
	}
}

// RequireAdmin validates an admin JWT and requires authentication
func RequireAdmin(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Use: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims["user_id"])
		c.Set("email", claims["email"])
		c.Set("role", claims["role"])

		c.Next()
	}
}
