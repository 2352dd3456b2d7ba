package identity

import (
	"context"
	"testing"

	"github.com/payaid/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTenantService_Update_PlanThenModules(t *testing.T) {
	ctx := context.Background()
	tenantRepo := new(MockTenantRepository)
	tenant := newTestTenant(t)
	tenantRepo.On("FindByID", ctx, tenant.ID).Return(tenant, nil)
	tenantRepo.On("Save", ctx, tenant).Return(nil)

	svc := NewTenantService(tenantRepo, new(MockUserRepository), zap.NewNop())

	plan := "starter"
	dto, err := svc.Update(ctx, UpdateTenantInput{ID: tenant.ID, Plan: &plan})
	require.NoError(t, err)
	assert.Equal(t, []string{"crm", "dashboard", "finance", "projects"}, dto.Modules)

	dto, err = svc.Update(ctx, UpdateTenantInput{ID: tenant.ID, Plan: &plan, Modules: []string{"crm", "hr"}})
	require.NoError(t, err)
	assert.Equal(t, "starter", dto.Plan)
	assert.Equal(t, []string{"crm", "hr"}, dto.Modules)
}

func TestTenantService_Update_InvalidModule(t *testing.T) {
	ctx := context.Background()
	tenantRepo := new(MockTenantRepository)
	tenant := newTestTenant(t)
	tenantRepo.On("FindByID", ctx, tenant.ID).Return(tenant, nil)

	svc := NewTenantService(tenantRepo, new(MockUserRepository), zap.NewNop())
	_, err := svc.Update(ctx, UpdateTenantInput{ID: tenant.ID, Modules: []string{"inventory"}})
	assertDomainCode(t, err, "INVALID_MODULE")
	tenantRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTenantService_SetModuleEnabled(t *testing.T) {
	ctx := context.Background()
	tenantRepo := new(MockTenantRepository)
	tenant := newTestTenant(t)
	tenantRepo.On("FindByID", ctx, tenant.ID).Return(tenant, nil)
	tenantRepo.On("Save", ctx, tenant).Return(nil)

	svc := NewTenantService(tenantRepo, new(MockUserRepository), zap.NewNop())

	dto, err := svc.SetModuleEnabled(ctx, tenant.ID, "knowledge", true)
	require.NoError(t, err)
	assert.Contains(t, dto.Modules, "knowledge")

	dto, err = svc.SetModuleEnabled(ctx, tenant.ID, "crm", false)
	require.NoError(t, err)
	assert.NotContains(t, dto.Modules, "crm")
}

func TestTenantService_ChangeStatus(t *testing.T) {
	ctx := context.Background()
	tenantRepo := new(MockTenantRepository)
	tenant := newTestTenant(t)
	tenantRepo.On("FindByID", ctx, tenant.ID).Return(tenant, nil)
	tenantRepo.On("Save", ctx, tenant).Return(nil)

	svc := NewTenantService(tenantRepo, new(MockUserRepository), zap.NewNop())

	dto, err := svc.ChangeStatus(ctx, tenant.ID, "suspended")
	require.NoError(t, err)
	assert.Equal(t, "suspended", dto.Status)

	_, err = svc.ChangeStatus(ctx, tenant.ID, "archived")
	assertDomainCode(t, err, "INVALID_STATUS")
}

func TestTenantService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	tenantRepo := new(MockTenantRepository)
	id := newTestTenant(t).ID
	tenantRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	svc := NewTenantService(tenantRepo, new(MockUserRepository), zap.NewNop())
	_, err := svc.Get(ctx, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
