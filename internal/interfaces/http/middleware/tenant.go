package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payaid/backend/internal/infrastructure/logger"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tenant context keys
const (
	TenantIDKey = "tenant_id"
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"
)

// TenantContext resolves the tenant and user of an authenticated request from
// its JWT claims. Requests without claims (public paths) pass through untouched.
func TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.Next()
			return
		}

		tenantID, err := claims.GetTenantUUID()
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Invalid tenant in token")
			return
		}
		userID, err := claims.GetUserUUID()
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Invalid user in token")
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Set(UserIDKey, userID)
		c.Set(UserRoleKey, claims.Role)

		ctx := logger.WithTenant(c.Request.Context(), claims.TenantID, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(
				attribute.String("tenant_id", claims.TenantID),
				attribute.String("user_id", claims.UserID),
			)
		}

		c.Next()
	}
}

// GetTenantID returns the tenant resolved by TenantContext
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	return uuidFrom(c, TenantIDKey)
}

// GetUserID returns the user resolved by TenantContext
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	return uuidFrom(c, UserIDKey)
}

// GetUserRole returns the role carried by the access token
func GetUserRole(c *gin.Context) string {
	return c.GetString(UserRoleKey)
}

func uuidFrom(c *gin.Context, key string) (uuid.UUID, bool) {
	v, exists := c.Get(key)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
