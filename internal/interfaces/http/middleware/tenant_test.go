package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payaid/backend/internal/infrastructure/auth"
	"github.com/payaid/backend/internal/infrastructure/logger"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withClaims stands in for JWTAuth in tests
func withClaims(claims *auth.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(JWTClaimsKey, claims)
		}
		c.Next()
	}
}

func testClaims(tenantID, userID uuid.UUID, role string) *auth.Claims {
	return &auth.Claims{
		TenantID:  tenantID.String(),
		UserID:    userID.String(),
		Email:     "ravi@acme.in",
		Role:      role,
		TokenType: auth.TokenTypeAccess,
	}
}

func TestTenantContext(t *testing.T) {
	t.Run("resolves tenant and user from claims", func(t *testing.T) {
		tenantID, userID := uuid.New(), uuid.New()
		var (
			gotTenant, gotUser uuid.UUID
			gotRole            string
			logTenant          string
		)
		router := gin.New()
		router.Use(RequestID(), withClaims(testClaims(tenantID, userID, "manager")), TenantContext())
		router.GET("/api/v1/crm/deals", func(c *gin.Context) {
			gotTenant, _ = GetTenantID(c)
			gotUser, _ = GetUserID(c)
			gotRole = GetUserRole(c)
			logTenant = logger.ScopeFrom(c.Request.Context()).TenantID
			c.Status(http.StatusOK)
		})

		w := doRequest(router, http.MethodGet, "/api/v1/crm/deals", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenantID, gotTenant)
		assert.Equal(t, userID, gotUser)
		assert.Equal(t, "manager", gotRole)
		assert.Equal(t, tenantID.String(), logTenant)
	})

	t.Run("passes through unauthenticated requests", func(t *testing.T) {
		var found bool
		router := gin.New()
		router.Use(TenantContext())
		router.GET("/health", func(c *gin.Context) {
			_, found = GetTenantID(c)
			c.Status(http.StatusOK)
		})

		w := doRequest(router, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, found)
	})

	t.Run("rejects claims with a malformed tenant", func(t *testing.T) {
		claims := testClaims(uuid.New(), uuid.New(), "member")
		claims.TenantID = "acme"
		router := gin.New()
		router.Use(RequestID(), withClaims(claims), TenantContext())
		router.GET("/api/v1/hr/employees", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := doRequest(router, http.MethodGet, "/api/v1/hr/employees", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, decodeError(t, w.Body.Bytes()).Code)
	})

	t.Run("rejects claims with a malformed user", func(t *testing.T) {
		claims := testClaims(uuid.New(), uuid.New(), "member")
		claims.UserID = ""
		router := gin.New()
		router.Use(withClaims(claims), TenantContext())
		router.GET("/api/v1/hr/employees", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := doRequest(router, http.MethodGet, "/api/v1/hr/employees", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUUIDFrom(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetTenantID(c)
	assert.False(t, ok)

	c.Set(TenantIDKey, uuid.Nil)
	_, ok = GetTenantID(c)
	assert.False(t, ok, "nil uuid is not a tenant")

	c.Set(TenantIDKey, "not-a-uuid-value")
	_, ok = GetTenantID(c)
	assert.False(t, ok)

	id := uuid.New()
	c.Set(UserIDKey, id)
	got, ok := GetUserID(c)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
