package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/hr"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/persistence/models"
	"github.com/payaid/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormEmployeeRepository implements hr.EmployeeRepository using GORM
type GormEmployeeRepository struct {
	db *gorm.DB
}

// NewGormEmployeeRepository creates a new GormEmployeeRepository
func NewGormEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

// FindByIDForTenant finds an employee by ID within a tenant
func (r *GormEmployeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*hr.Employee, error) {
	var model models.EmployeeModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Owned(tenantID, id)).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormEmployeeRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.EmployeeModel{}).Scopes(
		tenant.Scope(tenantID),
		searchScope(filter.Search, "name", "email", "employee_code", "designation"),
		eqFilter(filter, "status", "status"),
		eqFilter(filter, "department", "department"),
	)
}

// FindAllForTenant lists employees of a tenant
func (r *GormEmployeeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]hr.Employee, error) {
	var rows []models.EmployeeModel
	if err := r.filtered(ctx, tenantID, filter).Scopes(pageScope(filter, EmployeeSortFields)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]hr.Employee, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountForTenant counts employees matching the filter
func (r *GormEmployeeRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(ctx, tenantID, filter).Count(&count).Error
	return count, err
}

// Save creates or updates an employee
func (r *GormEmployeeRepository) Save(ctx context.Context, e *hr.Employee) error {
	return translateError(r.db.WithContext(ctx).Save(models.EmployeeModelFromDomain(e)).Error)
}

// DeleteForTenant soft deletes an employee
func (r *GormEmployeeRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return softDelete(ctx, r.db, &models.EmployeeModel{}, tenantID, id)
}

// ExistsByCode reports whether the employee code is taken within the tenant
func (r *GormEmployeeRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EmployeeModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("employee_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error
	return count > 0, err
}
