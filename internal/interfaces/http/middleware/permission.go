package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/payaid/backend/internal/interfaces/http/dto"
)

// RequireRole admits only users whose token carries one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !claims.HasRole(roles...) {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Your role does not allow this action")
			return
		}
		c.Next()
	}
}
