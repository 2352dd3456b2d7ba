package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/persistence/models"
	"github.com/payaid/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// softDelete removes one tenant-owned row, reporting ErrNotFound when nothing matched.
func softDelete(ctx context.Context, db *gorm.DB, model any, tenantID, id uuid.UUID) error {
	res := db.WithContext(ctx).Scopes(tenant.Owned(tenantID, id)).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormContactRepository implements crm.ContactRepository using GORM
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new GormContactRepository
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// FindByIDForTenant finds a contact by ID within a tenant
func (r *GormContactRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*crm.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Owned(tenantID, id)).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormContactRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.ContactModel{}).Scopes(
		tenant.Scope(tenantID),
		searchScope(filter.Search, "name", "email", "company", "phone"),
		eqFilter(filter, "stage", "stage"),
		eqFilter(filter, "source", "source"),
		eqFilter(filter, "assigned_to", "assigned_to_id"),
		eqFilter(filter, "territory_id", "territory_id"),
	)
	if strings.EqualFold(filter.StringFilter("unassigned"), "true") {
		q = q.Where("assigned_to_id IS NULL")
	}
	return q
}

// FindAllForTenant lists contacts of a tenant
func (r *GormContactRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]crm.Contact, error) {
	var rows []models.ContactModel
	if err := r.filtered(ctx, tenantID, filter).Scopes(pageScope(filter, ContactSortFields)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return contactsToDomain(rows), nil
}

// CountForTenant counts contacts matching the filter
func (r *GormContactRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(ctx, tenantID, filter).Count(&count).Error
	return count, err
}

// FindUnassignedOpen returns open leads with no owner, oldest first
func (r *GormContactRepository) FindUnassignedOpen(ctx context.Context, tenantID uuid.UUID, limit int) ([]crm.Contact, error) {
	var rows []models.ContactModel
	q := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("assigned_to_id IS NULL AND stage IN ?", crm.OpenStages).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return contactsToDomain(rows), nil
}

// CountOpenByAssignee returns open lead counts keyed by rep
func (r *GormContactRepository) CountOpenByAssignee(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		AssignedToID uuid.UUID
		OpenLeads    int
	}
	if err := r.db.WithContext(ctx).Model(&models.ContactModel{}).Scopes(tenant.Scope(tenantID)).
		Select("assigned_to_id, COUNT(*) AS open_leads").
		Where("assigned_to_id IS NOT NULL AND stage IN ?", crm.OpenStages).
		Group("assigned_to_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		counts[row.AssignedToID] = row.OpenLeads
	}
	return counts, nil
}

// Save creates or updates a contact
func (r *GormContactRepository) Save(ctx context.Context, c *crm.Contact) error {
	return translateError(r.db.WithContext(ctx).Save(models.ContactModelFromDomain(c)).Error)
}

// DeleteForTenant soft deletes a contact
func (r *GormContactRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return softDelete(ctx, r.db, &models.ContactModel{}, tenantID, id)
}

func contactsToDomain(rows []models.ContactModel) []crm.Contact {
	out := make([]crm.Contact, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormTerritoryRepository implements crm.TerritoryRepository using GORM
type GormTerritoryRepository struct {
	db *gorm.DB
}

// NewGormTerritoryRepository creates a new GormTerritoryRepository
func NewGormTerritoryRepository(db *gorm.DB) *GormTerritoryRepository {
	return &GormTerritoryRepository{db: db}
}

// FindByIDForTenant finds a territory by ID within a tenant
func (r *GormTerritoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*crm.Territory, error) {
	var model models.TerritoryModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Owned(tenantID, id)).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormTerritoryRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.TerritoryModel{}).Scopes(
		tenant.Scope(tenantID),
		searchScope(filter.Search, "name", "description"),
	)
	switch strings.ToLower(filter.StringFilter("active")) {
	case "true":
		q = q.Where("active = ?", true)
	case "false":
		q = q.Where("active = ?", false)
	}
	return q
}

// FindAllForTenant lists territories of a tenant
func (r *GormTerritoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]crm.Territory, error) {
	var rows []models.TerritoryModel
	if err := r.filtered(ctx, tenantID, filter).Scopes(pageScope(filter, TerritorySortFields)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return territoriesToDomain(rows), nil
}

// CountForTenant counts territories matching the filter
func (r *GormTerritoryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(ctx, tenantID, filter).Count(&count).Error
	return count, err
}

// FindActive returns all active territories of the tenant
func (r *GormTerritoryRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]crm.Territory, error) {
	var rows []models.TerritoryModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("active = ?", true).
		Order("priority DESC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return territoriesToDomain(rows), nil
}

// Save creates or updates a territory
func (r *GormTerritoryRepository) Save(ctx context.Context, t *crm.Territory) error {
	return translateError(r.db.WithContext(ctx).Save(models.TerritoryModelFromDomain(t)).Error)
}

// DeleteForTenant soft deletes a territory
func (r *GormTerritoryRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return softDelete(ctx, r.db, &models.TerritoryModel{}, tenantID, id)
}

// ExistsByName checks whether a territory name is taken, case-insensitively
func (r *GormTerritoryRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TerritoryModel{}).Scopes(tenant.Scope(tenantID)).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func territoriesToDomain(rows []models.TerritoryModel) []crm.Territory {
	out := make([]crm.Territory, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormDealRepository implements crm.DealRepository using GORM
type GormDealRepository struct {
	db *gorm.DB
}

// NewGormDealRepository creates a new GormDealRepository
func NewGormDealRepository(db *gorm.DB) *GormDealRepository {
	return &GormDealRepository{db: db}
}

// FindByIDForTenant finds a deal by ID within a tenant
func (r *GormDealRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*crm.Deal, error) {
	var model models.DealModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Owned(tenantID, id)).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormDealRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.DealModel{}).Scopes(
		tenant.Scope(tenantID),
		searchScope(filter.Search, "title"),
		eqFilter(filter, "stage", "stage"),
		eqFilter(filter, "owner_id", "owner_id"),
		eqFilter(filter, "contact_id", "contact_id"),
	)
}

// FindAllForTenant lists deals of a tenant
func (r *GormDealRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]crm.Deal, error) {
	var rows []models.DealModel
	if err := r.filtered(ctx, tenantID, filter).Scopes(pageScope(filter, DealSortFields)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]crm.Deal, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountForTenant counts deals matching the filter
func (r *GormDealRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(ctx, tenantID, filter).Count(&count).Error
	return count, err
}

// Save creates or updates a deal
func (r *GormDealRepository) Save(ctx context.Context, d *crm.Deal) error {
	return translateError(r.db.WithContext(ctx).Save(models.DealModelFromDomain(d)).Error)
}

// DeleteForTenant soft deletes a deal
func (r *GormDealRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return softDelete(ctx, r.db, &models.DealModel{}, tenantID, id)
}
