package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payaid/backend/internal/infrastructure/auth"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func TestRequireRole(t *testing.T) {
	newRouter := func(claims *auth.Claims) *gin.Engine {
		router := gin.New()
		router.Use(RequestID(), withClaims(claims))
		router.PATCH("/api/v1/tenant", RequireRole("owner", "admin"), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return router
	}

	tests := []struct {
		name   string
		role   string
		status int
	}{
		{"owner allowed", "owner", http.StatusNoContent},
		{"admin allowed", "admin", http.StatusNoContent},
		{"manager forbidden", "manager", http.StatusForbidden},
		{"sales rep forbidden", "sales_rep", http.StatusForbidden},
		{"member forbidden", "member", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(testClaims(uuid.New(), uuid.New(), tt.role))

			w := doRequest(router, http.MethodPatch, "/api/v1/tenant", nil)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, w.Body.Bytes()).Code)
			}
		})
	}

	t.Run("requires authentication", func(t *testing.T) {
		w := doRequest(newRouter(nil), http.MethodPatch, "/api/v1/tenant", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, decodeError(t, w.Body.Bytes()).Code)
	})
}
