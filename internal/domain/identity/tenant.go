package identity

import (
	"strings"
	"time"

	"github.com/payaid/backend/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusInactive  TenantStatus = "inactive"
	TenantStatusSuspended TenantStatus = "suspended" // Suspended due to payment/violation issues
	TenantStatusTrial     TenantStatus = "trial"
)

// TenantPlan represents the subscription plan of a tenant
type TenantPlan string

const (
	TenantPlanFree         TenantPlan = "free"
	TenantPlanStarter      TenantPlan = "starter"
	TenantPlanProfessional TenantPlan = "professional"
	TenantPlanEnterprise   TenantPlan = "enterprise"
)

// IsValid reports whether the plan is known
func (p TenantPlan) IsValid() bool {
	switch p {
	case TenantPlanFree, TenantPlanStarter, TenantPlanProfessional, TenantPlanEnterprise:
		return true
	}
	return false
}

// Tenant represents a customer organization.
// Every other aggregate is scoped by the tenant's ID.
type Tenant struct {
	shared.BaseAggregateRoot
	Code         string
	Name         string
	Status       TenantStatus
	Plan         TenantPlan
	Modules      ModuleSet
	ContactEmail string
	Currency     string
	Timezone     string
	TrialEndsAt  *time.Time
}

// NewTenant creates a new active tenant on the free plan
func NewTenant(code, name string) (*Tenant, error) {
	if err := validateTenantCode(code); err != nil {
		return nil, err
	}
	if err := validateTenantName(name); err != nil {
		return nil, err
	}

	return &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              strings.TrimSpace(name),
		Status:            TenantStatusActive,
		Plan:              TenantPlanFree,
		Modules:           DefaultPlanModules(TenantPlanFree),
		Currency:          "INR",
		Timezone:          "Asia/Kolkata",
	}, nil
}

// NewTrialTenant creates a tenant in trial status on the given plan
func NewTrialTenant(code, name string, plan TenantPlan, trialDays int) (*Tenant, error) {
	if trialDays <= 0 {
		return nil, shared.NewDomainError("INVALID_TRIAL_DAYS", "Trial days must be positive")
	}
	tenant, err := NewTenant(code, name)
	if err != nil {
		return nil, err
	}
	if err := tenant.ChangePlan(plan); err != nil {
		return nil, err
	}

	tenant.Status = TenantStatusTrial
	trialEnds := time.Now().AddDate(0, 0, trialDays)
	tenant.TrialEndsAt = &trialEnds
	return tenant, nil
}

// Rename updates the display name
func (t *Tenant) Rename(name string) error {
	if err := validateTenantName(name); err != nil {
		return err
	}
	t.Name = strings.TrimSpace(name)
	t.MarkModified()
	return nil
}

// SetContactEmail sets the billing/contact email
func (t *Tenant) SetContactEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	t.ContactEmail = strings.TrimSpace(email)
	t.MarkModified()
	return nil
}

// ChangePlan switches plan and resets the licensed modules to the plan default.
func (t *Tenant) ChangePlan(plan TenantPlan) error {
	if !plan.IsValid() {
		return shared.NewDomainError("INVALID_PLAN", "Invalid tenant plan")
	}
	t.Plan = plan
	t.Modules = DefaultPlanModules(plan)
	t.MarkModified()
	return nil
}

// EnableModule licenses an additional module for the tenant
func (t *Tenant) EnableModule(key ModuleKey) error {
	if !key.IsValid() {
		return shared.NewDomainError("INVALID_MODULE", "Unknown module: "+string(key))
	}
	if t.Modules.Contains(key) {
		return nil
	}
	t.Modules = t.Modules.With(key)
	t.MarkModified()
	return nil
}

// DisableModule revokes a module license
func (t *Tenant) DisableModule(key ModuleKey) error {
	if !key.IsValid() {
		return shared.NewDomainError("INVALID_MODULE", "Unknown module: "+string(key))
	}
	if !t.Modules.Contains(key) {
		return nil
	}
	t.Modules = t.Modules.Without(key)
	t.MarkModified()
	return nil
}

// SetModules replaces the licensed module set
func (t *Tenant) SetModules(keys []ModuleKey) error {
	for _, k := range keys {
		if !k.IsValid() {
			return shared.NewDomainError("INVALID_MODULE", "Unknown module: "+string(k))
		}
	}
	t.Modules = NewModuleSet(keys...)
	t.MarkModified()
	return nil
}

// HasModule reports whether the tenant may use a module right now.
// Suspended, inactive and expired-trial tenants have no usable modules.
func (t *Tenant) HasModule(key ModuleKey) bool {
	if !t.IsOperational() {
		return false
	}
	return t.Modules.Contains(key)
}

// IsOperational reports whether the tenant can use the platform
func (t *Tenant) IsOperational() bool {
	switch t.Status {
	case TenantStatusActive:
		return true
	case TenantStatusTrial:
		return !t.IsTrialExpired()
	default:
		return false
	}
}

// Activate activates the tenant
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Tenant is already active")
	}
	t.Status = TenantStatusActive
	t.TrialEndsAt = nil
	t.MarkModified()
	return nil
}

// Suspend suspends the tenant (e.g., due to payment issues)
func (t *Tenant) Suspend() error {
	if t.Status == TenantStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Tenant is already suspended")
	}
	t.Status = TenantStatusSuspended
	t.MarkModified()
	return nil
}

// Deactivate deactivates the tenant
func (t *Tenant) Deactivate() error {
	if t.Status == TenantStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Tenant is already inactive")
	}
	t.Status = TenantStatusInactive
	t.MarkModified()
	return nil
}

// IsTrialExpired returns true if the trial has expired
func (t *Tenant) IsTrialExpired() bool {
	if t.Status != TenantStatusTrial || t.TrialEndsAt == nil {
		return false
	}
	return time.Now().After(*t.TrialEndsAt)
}

func validateTenantCode(code string) error {
	if len(code) < 2 {
		return shared.NewDomainError("INVALID_CODE", "Tenant code must be at least 2 characters")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Tenant code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Tenant code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateTenantName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot exceed 200 characters")
	}
	return nil
}
