package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"ucplatform-backend/pkg/jwt"
	"ucplatform-backend/pkg/response"
)

// Auth validates the JWT and stores user_id, username and role in the
// Gin context. WebSocket clients cannot set headers, so a token query
// parameter is accepted as a fallback.
func Auth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(c, "Invalid authorization header format")
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			response.Unauthorized(c, "Authorization required")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)

		c.Next()
	}
}
