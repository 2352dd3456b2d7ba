package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/projects"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/persistence/models"
	"github.com/payaid/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormProjectRepository implements projects.ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByIDForTenant finds a project by ID within a tenant
func (r *GormProjectRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*projects.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Owned(tenantID, id)).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormProjectRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ProjectModel{}).Scopes(
		tenant.Scope(tenantID),
		searchScope(filter.Search, "name", "code"),
		eqFilter(filter, "status", "status"),
		eqFilter(filter, "manager_id", "manager_id"),
	)
}

// FindAllForTenant lists projects of a tenant
func (r *GormProjectRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]projects.Project, error) {
	var rows []models.ProjectModel
	if err := r.filtered(ctx, tenantID, filter).Scopes(pageScope(filter, ProjectSortFields)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]projects.Project, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountForTenant counts projects matching the filter
func (r *GormProjectRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(ctx, tenantID, filter).Count(&count).Error
	return count, err
}

// Save creates or updates a project
func (r *GormProjectRepository) Save(ctx context.Context, p *projects.Project) error {
	return translateError(r.db.WithContext(ctx).Save(models.ProjectModelFromDomain(p)).Error)
}

// DeleteForTenant soft deletes a project
func (r *GormProjectRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return softDelete(ctx, r.db, &models.ProjectModel{}, tenantID, id)
}

// ExistsByCode reports whether the project code is taken within the tenant
func (r *GormProjectRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProjectModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error
	return count > 0, err
}
