package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TenantService handles tenant provisioning and licensing
type TenantService struct {
	tenantRepo identity.TenantRepository
	userRepo   identity.UserRepository
	logger     *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenantRepo identity.TenantRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

// ProvisionInput creates a tenant and its owner account
type ProvisionInput struct {
	Code          string
	Name          string
	Plan          string
	TrialDays     int // If > 0, creates a trial tenant
	ContactEmail  string
	OwnerName     string
	OwnerEmail    string
	OwnerPassword string
}

// ProvisionResult holds the created tenant and owner
type ProvisionResult struct {
	Tenant *identity.Tenant
	Owner  *identity.User
}

// Provision creates a tenant on the requested plan together with its owner user
func (s *TenantService) Provision(ctx context.Context, input ProvisionInput) (*ProvisionResult, error) {
	exists, err := s.tenantRepo.ExistsByCode(ctx, input.Code)
	if err != nil {
		s.logger.Error("Failed to check tenant code", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("TENANT_CODE_EXISTS", "Tenant code is already taken")
	}

	plan := identity.TenantPlan(input.Plan)
	if input.Plan == "" {
		plan = identity.TenantPlanFree
	}

	var tenant *identity.Tenant
	if input.TrialDays > 0 {
		tenant, err = identity.NewTrialTenant(input.Code, input.Name, plan, input.TrialDays)
	} else {
		tenant, err = identity.NewTenant(input.Code, input.Name)
		if err == nil {
			err = tenant.ChangePlan(plan)
		}
	}
	if err != nil {
		return nil, err
	}

	contactEmail := input.ContactEmail
	if contactEmail == "" {
		contactEmail = input.OwnerEmail
	}
	if err := tenant.SetContactEmail(contactEmail); err != nil {
		return nil, err
	}

	owner, err := identity.NewUser(tenant.ID, input.OwnerEmail, input.OwnerName, input.OwnerPassword, identity.UserRoleOwner)
	if err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("TENANT_CODE_EXISTS", "Tenant code is already taken")
		}
		s.logger.Error("Failed to save tenant", zap.Error(err))
		return nil, err
	}
	owner.SetCreatedBy(owner.ID)
	if err := s.userRepo.Save(ctx, owner); err != nil {
		s.logger.Error("Failed to save tenant owner", zap.String("tenant_id", tenant.ID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Tenant provisioned",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("code", tenant.Code),
		zap.String("plan", string(tenant.Plan)),
		zap.String("status", string(tenant.Status)))

	return &ProvisionResult{Tenant: tenant, Owner: owner}, nil
}

// Load returns the domain tenant, used by module guards
func (s *TenantService) Load(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return s.tenantRepo.FindByID(ctx, id)
}

// Get returns a tenant by ID
func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToTenantDTO(tenant)
	return &dto, nil
}

// UpdateTenantInput changes tenant settings. Nil fields are left untouched.
// Plan is applied before Modules so an explicit module list overrides the plan default.
type UpdateTenantInput struct {
	ID           uuid.UUID
	Name         *string
	ContactEmail *string
	Plan         *string
	Modules      []string
}

// Update applies tenant setting and licensing changes
func (s *TenantService) Update(ctx context.Context, input UpdateTenantInput) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := tenant.Rename(*input.Name); err != nil {
			return nil, err
		}
	}
	if input.ContactEmail != nil {
		if err := tenant.SetContactEmail(*input.ContactEmail); err != nil {
			return nil, err
		}
	}
	if input.Plan != nil {
		if err := tenant.ChangePlan(identity.TenantPlan(*input.Plan)); err != nil {
			return nil, err
		}
	}
	if input.Modules != nil {
		keys := make([]identity.ModuleKey, len(input.Modules))
		for i, m := range input.Modules {
			keys[i] = identity.ModuleKey(m)
		}
		if err := tenant.SetModules(keys); err != nil {
			return nil, err
		}
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		s.logger.Error("Failed to update tenant", zap.String("tenant_id", input.ID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Tenant updated",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("plan", string(tenant.Plan)),
		zap.String("modules", tenant.Modules.String()))

	dto := ToTenantDTO(tenant)
	return &dto, nil
}

// SetModuleEnabled licenses or revokes one module
func (s *TenantService) SetModuleEnabled(ctx context.Context, id uuid.UUID, module string, enabled bool) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := identity.ModuleKey(module)
	if enabled {
		err = tenant.EnableModule(key)
	} else {
		err = tenant.DisableModule(key)
	}
	if err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.Info("Tenant module toggled",
		zap.String("tenant_id", id.String()),
		zap.String("module", module),
		zap.Bool("enabled", enabled))

	dto := ToTenantDTO(tenant)
	return &dto, nil
}

// ChangeStatus activates, suspends or deactivates a tenant
func (s *TenantService) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch identity.TenantStatus(status) {
	case identity.TenantStatusActive:
		err = tenant.Activate()
	case identity.TenantStatusSuspended:
		err = tenant.Suspend()
	case identity.TenantStatusInactive:
		err = tenant.Deactivate()
	default:
		err = shared.NewDomainError("INVALID_STATUS", "Unsupported tenant status: "+status)
	}
	if err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.Info("Tenant status changed", zap.String("tenant_id", id.String()), zap.String("status", status))
	dto := ToTenantDTO(tenant)
	return &dto, nil
}
