package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/finance"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/persistence/models"
	"github.com/payaid/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements finance.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindByIDForTenant finds an invoice with its lines
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Owned(tenantID, id), preloadLines).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormInvoiceRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Scopes(
		tenant.Scope(tenantID),
		searchScope(filter.Search, "number", "notes"),
		eqFilter(filter, "status", "status"),
		eqFilter(filter, "contact_id", "contact_id"),
	)
}

// FindAllForTenant lists invoices of a tenant
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.filtered(ctx, tenantID, filter).
		Scopes(pageScope(filter, InvoiceSortFields), preloadLines).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(rows), nil
}

// CountForTenant counts invoices matching the filter
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(ctx, tenantID, filter).Count(&count).Error
	return count, err
}

// FindDueBefore returns sent or partially paid invoices due before the given time
func (r *GormInvoiceRepository) FindDueBefore(ctx context.Context, tenantID uuid.UUID, before time.Time) ([]finance.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID), preloadLines).
		Where("status IN ?", []finance.InvoiceStatus{finance.InvoiceStatusSent, finance.InvoiceStatusPartiallyPaid}).
		Where("due_date < ?", before).
		Order("due_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(rows), nil
}

// Save writes the invoice header and replaces its lines in one transaction
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *finance.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	lines := model.Lines
	model.Lines = nil

	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", model.ID).Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	}))
}

// DeleteForTenant soft deletes an invoice; its lines stay for audit
func (r *GormInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return softDelete(ctx, r.db, &models.InvoiceModel{}, tenantID, id)
}

// ExistsByNumber reports whether the tenant already uses the invoice number
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, tenantID uuid.UUID, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("number = ?", number).
		Count(&count).Error
	return count > 0, err
}

func invoicesToDomain(rows []models.InvoiceModel) []finance.Invoice {
	out := make([]finance.Invoice, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}
