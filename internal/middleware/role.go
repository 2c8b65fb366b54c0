package middleware

import (
	"github.com/gin-gonic/gin"

	"ucplatform-backend/internal/domain"
	"ucplatform-backend/pkg/response"
)

// RequireRole restricts a route to the given roles. Must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		role := c.GetString("role")
		if !allowed[role] {
			response.Forbidden(c, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin restricts a route to administrators
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
