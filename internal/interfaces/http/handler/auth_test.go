package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	identityapp "github.com/payaid/backend/internal/application/identity"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"github.com/payaid/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAuthRouter mounts the auth endpoints behind the real token middleware
func newAuthRouter(env *testEnv) *gin.Engine {
	h := NewAuthHandler(env.auth)
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.JWTAuth(middleware.DefaultJWTConfig(env.jwt, env.blacklist, nil)),
		middleware.TenantContext(),
	)
	g := engine.Group("/api/v1/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.RefreshToken)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.GetCurrentUser)
	g.PUT("/password", h.ChangePassword)
	return engine
}

func withBearer(router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	return performRequestWith(router, method, path, body, map[string]string{
		middleware.AuthHeaderKey: middleware.BearerPrefix + token,
	})
}

func performRequestWith(router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range headers {
			r.Header.Set(k, v)
		}
		router.ServeHTTP(w, r)
	})
	return performRequest(wrapped, method, path, body)
}

func login(t *testing.T, router http.Handler, email, password string) *identityapp.AuthResult {
	t.Helper()
	w := performRequest(router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		TenantCode: "ACME",
		Email:      email,
		Password:   password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[identityapp.AuthResult](t, w).Data
	return &result
}

func TestAuthHandler_Register(t *testing.T) {
	env := newTestEnv(t)
	router := newAuthRouter(env)

	t.Run("creates tenant and signs the owner in", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/auth/register", RegisterRequest{
			TenantCode: "GLOBEX",
			TenantName: "Globex Exports",
			OwnerName:  "Ravi Iyer",
			OwnerEmail: "ravi@globex.in",
			Password:   testPassword,
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		result := decode[identityapp.AuthResult](t, w).Data
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		require.NotNil(t, result.Tenant)
		assert.Equal(t, "free", result.Tenant.Plan)
		assert.ElementsMatch(t, []string{"crm", "dashboard"}, result.Tenant.Modules)
		require.NotNil(t, result.User)
		assert.Equal(t, "owner", result.User.Role)
	})

	t.Run("rejects a taken tenant code", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/auth/register", RegisterRequest{
			TenantCode: "ACME",
			TenantName: "Another Acme",
			OwnerName:  "Someone",
			OwnerEmail: "someone@acme.in",
			Password:   testPassword,
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeAlreadyExists, errorCode(t, w))
	})

	t.Run("validates the body", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/auth/register", map[string]any{
			"tenant_code": "X",
			"owner_email": "not-an-email",
			"password":    "short",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[any](t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.Contains(t, fields, "owner_email")
		assert.Contains(t, fields, "password")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	env := newTestEnv(t)
	router := newAuthRouter(env)

	t.Run("valid credentials", func(t *testing.T) {
		result := login(t, router, "asha@acme.in", testPassword)

		assert.Equal(t, "Bearer", result.TokenType)
		assert.Equal(t, env.owner.ID, result.User.ID)
	})

	t.Run("email is case insensitive", func(t *testing.T) {
		result := login(t, router, "ASHA@acme.in", testPassword)
		assert.Equal(t, env.owner.ID, result.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
			TenantCode: "ACME", Email: "asha@acme.in", Password: "wrong-password",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))
	})

	t.Run("unknown tenant looks like bad credentials", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
			TenantCode: "NOPE", Email: "asha@acme.in", Password: testPassword,
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_Session(t *testing.T) {
	env := newTestEnv(t)
	router := newAuthRouter(env)

	t.Run("me requires a token", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/v1/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("me returns user, tenant and modules", func(t *testing.T) {
		tokens := login(t, router, "asha@acme.in", testPassword)

		w := withBearer(router, http.MethodGet, "/api/v1/auth/me", tokens.AccessToken, nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		me := decode[identityapp.CurrentUserResult](t, w).Data
		assert.Equal(t, "asha@acme.in", me.User.Email)
		assert.Equal(t, "ACME", me.Tenant.Code)
		assert.Contains(t, me.Modules, "knowledge")
		assert.Contains(t, me.Modules, "ai_assistant")
	})

	t.Run("refresh issues a new pair", func(t *testing.T) {
		tokens := login(t, router, "asha@acme.in", testPassword)

		w := performRequest(router, http.MethodPost, "/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: tokens.RefreshToken})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		refreshed := decode[identityapp.AuthResult](t, w).Data
		assert.NotEmpty(t, refreshed.AccessToken)

		w = performRequest(router, http.MethodPost, "/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: tokens.AccessToken})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout revokes access and refresh tokens", func(t *testing.T) {
		tokens := login(t, router, "asha@acme.in", testPassword)

		w := withBearer(router, http.MethodPost, "/api/v1/auth/logout", tokens.AccessToken,
			LogoutRequest{RefreshToken: tokens.RefreshToken})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = withBearer(router, http.MethodGet, "/api/v1/auth/me", tokens.AccessToken, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = performRequest(router, http.MethodPost, "/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout without body", func(t *testing.T) {
		tokens := login(t, router, "asha@acme.in", testPassword)

		w := withBearer(router, http.MethodPost, "/api/v1/auth/logout", tokens.AccessToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	router := newAuthRouter(env)
	tokens := login(t, router, "asha@acme.in", testPassword)

	t.Run("rejects a wrong current password", func(t *testing.T) {
		w := withBearer(router, http.MethodPut, "/api/v1/auth/password", tokens.AccessToken, ChangePasswordRequest{
			OldPassword: "not-my-password",
			NewPassword: "N3w-secure-pass",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[any](t, w)
		assert.Equal(t, "INVALID_PASSWORD", resp.Error.Reason)
	})

	t.Run("changes the password and ends existing sessions", func(t *testing.T) {
		w := withBearer(router, http.MethodPut, "/api/v1/auth/password", tokens.AccessToken, ChangePasswordRequest{
			OldPassword: testPassword,
			NewPassword: "N3w-secure-pass",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = withBearer(router, http.MethodGet, "/api/v1/auth/me", tokens.AccessToken, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = performRequest(router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
			TenantCode: "ACME", Email: "asha@acme.in", Password: testPassword,
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
