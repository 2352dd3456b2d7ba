package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/cache"
	"github.com/payaid/backend/internal/infrastructure/logger"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// DefaultModuleCacheTTL bounds how long a licensing change takes to reach the guard
const DefaultModuleCacheTTL = 30 * time.Second

// TenantLoader loads a tenant aggregate
type TenantLoader interface {
	Load(ctx context.Context, id uuid.UUID) (*identity.Tenant, error)
}

// ModuleGuard rejects requests for modules the tenant cannot use.
// Tenants are cached in process for a short TTL.
type ModuleGuard struct {
	loader TenantLoader
	cache  *cache.Local[*identity.Tenant]
}

// NewModuleGuard creates a guard caching tenants for ttl
func NewModuleGuard(loader TenantLoader, ttl time.Duration) *ModuleGuard {
	if ttl <= 0 {
		ttl = DefaultModuleCacheTTL
	}
	return &ModuleGuard{
		loader: loader,
		cache:  cache.NewLocal[*identity.Tenant](ttl),
	}
}

// Close stops the cache eviction loop
func (g *ModuleGuard) Close() error {
	return g.cache.Close()
}

// Invalidate drops the cached tenant so the next request reloads it
func (g *ModuleGuard) Invalidate(tenantID uuid.UUID) {
	g.cache.Delete(tenantID.String())
}

func (g *ModuleGuard) tenant(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	if t, ok := g.cache.Get(id.String()); ok {
		return t, nil
	}
	t, err := g.loader.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	g.cache.Set(id.String(), t)
	return t, nil
}

// Require admits the request only when the tenant is operational and licensed for key
func (g *ModuleGuard) Require(key identity.ModuleKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := GetTenantID(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		tenant, err := g.tenant(c.Request.Context(), tenantID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Tenant no longer exists")
				return
			}
			logger.FromGin(c).Error("Failed to load tenant for module check", zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An internal error occurred")
			return
		}

		if !tenant.HasModule(key) {
			message := "Your plan does not include the " + string(key) + " module"
			if !tenant.IsOperational() {
				message = "Tenant account is not active"
			}
			resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeModuleNotLicensed, message, GetRequestID(c))
			resp.Error.Context = map[string]any{"module": string(key)}
			c.AbortWithStatusJSON(http.StatusForbidden, resp)
			return
		}
		c.Next()
	}
}
