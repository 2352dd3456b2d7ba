package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payaid/backend/internal/application/identity"
)

// TenantCacheInvalidator drops cached tenant state after licensing changes
type TenantCacheInvalidator interface {
	Invalidate(tenantID uuid.UUID)
}

// TenantHandler handles the signed-in tenant's settings and module licensing
type TenantHandler struct {
	BaseHandler
	tenantService *identity.TenantService
	invalidator   TenantCacheInvalidator
}

// NewTenantHandler creates a new TenantHandler. invalidator may be nil.
func NewTenantHandler(tenantService *identity.TenantService, invalidator TenantCacheInvalidator) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
		invalidator:   invalidator,
	}
}

// UpdateTenantRequest changes tenant settings. Omitted fields are left untouched.
// @Name HandlerUpdateTenantRequest
type UpdateTenantRequest struct {
	Name         *string  `json:"name" binding:"omitempty,min=1,max=200" example:"Acme Traders"`
	ContactEmail *string  `json:"contact_email" binding:"omitempty,email,max=200" example:"billing@acme.in"`
	Plan         *string  `json:"plan" binding:"omitempty,plan" example:"professional"`
	Modules      []string `json:"modules" binding:"omitempty,dive,module" example:"crm,finance"`
}

// Get godoc
// @ID           getTenant
// @Summary      Get tenant
// @Description  Get the signed-in tenant with its plan and licensed modules
// @Tags         tenant
// @Produce      json
// @Success      200 {object} APIResponse[identity.TenantDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenant [get]
func (h *TenantHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	tenant, err := h.tenantService.Get(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tenant)
}

// Update godoc
// @ID           updateTenant
// @Summary      Update tenant
// @Description  Rename the tenant, change its plan or replace its module set. A plan change resets modules to the plan default unless modules are given.
// @Tags         tenant
// @Accept       json
// @Produce      json
// @Param        request body UpdateTenantRequest true "Tenant changes"
// @Success      200 {object} APIResponse[identity.TenantDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenant [patch]
func (h *TenantHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req UpdateTenantRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tenant, err := h.tenantService.Update(c.Request.Context(), identity.UpdateTenantInput{
		ID:           tenantID,
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Plan:         req.Plan,
		Modules:      req.Modules,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.invalidate(tenantID)

	h.Success(c, tenant)
}

// EnableModule godoc
// @ID           enableTenantModule
// @Summary      Enable a module
// @Description  License one additional module for the tenant
// @Tags         tenant
// @Produce      json
// @Param        module path string true "Module key" Enums(crm, hr, finance, projects, knowledge, ai_assistant, dashboard)
// @Success      200 {object} APIResponse[identity.TenantDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenant/modules/{module} [put]
func (h *TenantHandler) EnableModule(c *gin.Context) {
	h.setModule(c, true)
}

// DisableModule godoc
// @ID           disableTenantModule
// @Summary      Disable a module
// @Description  Revoke a module license from the tenant
// @Tags         tenant
// @Produce      json
// @Param        module path string true "Module key" Enums(crm, hr, finance, projects, knowledge, ai_assistant, dashboard)
// @Success      200 {object} APIResponse[identity.TenantDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenant/modules/{module} [delete]
func (h *TenantHandler) DisableModule(c *gin.Context) {
	h.setModule(c, false)
}

func (h *TenantHandler) setModule(c *gin.Context, enabled bool) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	tenant, err := h.tenantService.SetModuleEnabled(c.Request.Context(), tenantID, c.Param("module"), enabled)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.invalidate(tenantID)

	h.Success(c, tenant)
}

func (h *TenantHandler) invalidate(tenantID uuid.UUID) {
	if h.invalidator != nil {
		h.invalidator.Invalidate(tenantID)
	}
}
