package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newSystemRouter(h *SystemHandler) *gin.Engine {
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	return router
}

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("1.2.3", nil)

	w := performRequest(newSystemRouter(h), http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	health := decode[HealthResponse](t, w).Data
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	assert.NotEmpty(t, health.GoVersion)
	assert.NotEmpty(t, health.Uptime)
}

func TestSystemHandler_Ready(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("all components up", func(t *testing.T) {
		h := NewSystemHandler("dev", map[string]Pinger{"database": ok, "cache": ok})

		w := performRequest(newSystemRouter(h), http.MethodGet, "/ready", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode[ReadyResponse](t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, "ready", resp.Data.Status)
		assert.Equal(t, map[string]string{"database": "ok", "cache": "ok"}, resp.Data.Components)
	})

	t.Run("a failing component makes the service unavailable", func(t *testing.T) {
		h := NewSystemHandler("dev", map[string]Pinger{"database": down, "cache": ok})

		w := performRequest(newSystemRouter(h), http.MethodGet, "/ready", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decode[ReadyResponse](t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "unavailable", resp.Data.Status)
		assert.Equal(t, "error", resp.Data.Components["database"])
		assert.Equal(t, "ok", resp.Data.Components["cache"])
		assert.NotContains(t, w.Body.String(), "connection refused")
	})

	t.Run("pings a real database", func(t *testing.T) {
		db := newTestDB(t)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		h := NewSystemHandler("dev", map[string]Pinger{"database": pingFunc(sqlDB.PingContext)})

		w := performRequest(newSystemRouter(h), http.MethodGet, "/ready", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
