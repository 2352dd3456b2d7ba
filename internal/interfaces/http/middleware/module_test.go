package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTenantLoader struct {
	tenants map[uuid.UUID]*identity.Tenant
	err     error
	calls   atomic.Int32
}

func (s *stubTenantLoader) Load(_ context.Context, id uuid.UUID) (*identity.Tenant, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	t, ok := s.tenants[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return t, nil
}

func newTestTenant(t *testing.T, modules ...identity.ModuleKey) *identity.Tenant {
	t.Helper()
	tenant, err := identity.NewTenant("ACME", "Acme Traders")
	require.NoError(t, err)
	require.NoError(t, tenant.SetModules(modules))
	return tenant
}

func newGuardRouter(t *testing.T, loader TenantLoader, tenantID uuid.UUID) (*gin.Engine, *ModuleGuard) {
	t.Helper()
	guard := NewModuleGuard(loader, time.Minute)
	t.Cleanup(func() { _ = guard.Close() })

	router := gin.New()
	router.Use(RequestID(), withClaims(testClaims(tenantID, uuid.New(), "member")), TenantContext())
	router.GET("/api/v1/crm/contacts", guard.Require(identity.ModuleCRM), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/api/v1/finance/invoices", guard.Require(identity.ModuleFinance), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, guard
}

func TestModuleGuard(t *testing.T) {
	t.Run("admits licensed modules and rejects the rest", func(t *testing.T) {
		tenant := newTestTenant(t, identity.ModuleCRM)
		loader := &stubTenantLoader{tenants: map[uuid.UUID]*identity.Tenant{tenant.ID: tenant}}
		router, _ := newGuardRouter(t, loader, tenant.ID)

		assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/api/v1/crm/contacts", nil).Code)

		w := doRequest(router, http.MethodGet, "/api/v1/finance/invoices", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		info := decodeError(t, w.Body.Bytes())
		assert.Equal(t, dto.ErrCodeModuleNotLicensed, info.Code)
		assert.Equal(t, "finance", info.Context["module"])
	})

	t.Run("caches tenants until invalidated", func(t *testing.T) {
		tenant := newTestTenant(t, identity.ModuleCRM)
		loader := &stubTenantLoader{tenants: map[uuid.UUID]*identity.Tenant{tenant.ID: tenant}}
		router, guard := newGuardRouter(t, loader, tenant.ID)

		doRequest(router, http.MethodGet, "/api/v1/crm/contacts", nil)
		doRequest(router, http.MethodGet, "/api/v1/crm/contacts", nil)
		assert.Equal(t, int32(1), loader.calls.Load())

		guard.Invalidate(tenant.ID)
		doRequest(router, http.MethodGet, "/api/v1/crm/contacts", nil)
		assert.Equal(t, int32(2), loader.calls.Load())
	})

	t.Run("rejects suspended tenants", func(t *testing.T) {
		tenant := newTestTenant(t, identity.ModuleCRM)
		require.NoError(t, tenant.Suspend())
		loader := &stubTenantLoader{tenants: map[uuid.UUID]*identity.Tenant{tenant.ID: tenant}}
		router, _ := newGuardRouter(t, loader, tenant.ID)

		w := doRequest(router, http.MethodGet, "/api/v1/crm/contacts", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Tenant account is not active", decodeError(t, w.Body.Bytes()).Message)
	})

	t.Run("rejects unknown tenants", func(t *testing.T) {
		router, _ := newGuardRouter(t, &stubTenantLoader{}, uuid.New())

		w := doRequest(router, http.MethodGet, "/api/v1/crm/contacts", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("reports loader failures as internal errors", func(t *testing.T) {
		loader := &stubTenantLoader{err: errors.New("connection refused")}
		router, _ := newGuardRouter(t, loader, uuid.New())

		w := doRequest(router, http.MethodGet, "/api/v1/crm/contacts", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, dto.ErrCodeInternal, decodeError(t, w.Body.Bytes()).Code)
	})

	t.Run("requires a tenant", func(t *testing.T) {
		guard := NewModuleGuard(&stubTenantLoader{}, 0)
		defer guard.Close()
		router := gin.New()
		router.GET("/api/v1/crm/contacts", guard.Require(identity.ModuleCRM), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		assert.Equal(t, http.StatusUnauthorized, doRequest(router, http.MethodGet, "/api/v1/crm/contacts", nil).Code)
	})
}
