package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/finance"
	"github.com/payaid/backend/internal/domain/hr"
	"github.com/payaid/backend/internal/domain/knowledge"
	"github.com/payaid/backend/internal/domain/report"
	"github.com/payaid/backend/internal/infrastructure/persistence/models"
	"github.com/payaid/backend/internal/infrastructure/persistence/tenant"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormDashboardRepository implements report.DashboardRepository with SQL aggregates
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

type groupCount struct {
	Bucket string
	Total  int64
}

// countBy runs SELECT column, COUNT(*) ... GROUP BY column over a tenant's live rows.
func (r *GormDashboardRepository) countBy(ctx context.Context, model any, tenantID uuid.UUID, column string) (map[string]int64, int64, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).Model(model).
		Scopes(tenant.Scope(tenantID)).
		Select(column + " AS bucket, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	out := make(map[string]int64, len(rows))
	var sum int64
	for _, row := range rows {
		out[row.Bucket] = row.Total
		sum += row.Total
	}
	return out, sum, nil
}

func (r *GormDashboardRepository) sum(ctx context.Context, model any, tenantID uuid.UUID, expr string, where string, args ...any) (decimal.Decimal, error) {
	var result struct {
		Total decimal.NullDecimal
	}
	q := r.db.WithContext(ctx).Model(model).
		Scopes(tenant.Scope(tenantID)).
		Select("COALESCE(SUM(" + expr + "), 0) AS total")
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	if !result.Total.Valid {
		return decimal.Zero, nil
	}
	return result.Total.Decimal.Round(2), nil
}

// CRMStats aggregates contacts by stage and the deal pipeline
func (r *GormDashboardRepository) CRMStats(ctx context.Context, tenantID uuid.UUID, monthStart time.Time) (*report.CRMStats, error) {
	stats := &report.CRMStats{}
	var err error

	stats.ContactsByStage, stats.TotalContacts, err = r.countBy(ctx, &models.ContactModel{}, tenantID, "stage")
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&models.ContactModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("assigned_to_id IS NULL AND stage IN ?", crm.OpenStages).
		Count(&stats.UnassignedOpenLeads).Error; err != nil {
		return nil, err
	}

	stats.DealsByStage, _, err = r.countBy(ctx, &models.DealModel{}, tenantID, "stage")
	if err != nil {
		return nil, err
	}

	closed := []crm.DealStage{crm.DealStageWon, crm.DealStageLost}
	if stats.OpenPipelineValue, err = r.sum(ctx, &models.DealModel{}, tenantID, "value", "stage NOT IN ?", closed); err != nil {
		return nil, err
	}
	if stats.WeightedPipelineValue, err = r.sum(ctx, &models.DealModel{}, tenantID, "value * probability / 100.0", "stage NOT IN ?", closed); err != nil {
		return nil, err
	}
	if stats.WonThisMonth, err = r.sum(ctx, &models.DealModel{}, tenantID, "value", "stage = ? AND closed_at >= ?", crm.DealStageWon, monthStart); err != nil {
		return nil, err
	}
	return stats, nil
}

// FinanceStats aggregates invoices. Cancelled and draft invoices are not counted as invoiced.
func (r *GormDashboardRepository) FinanceStats(ctx context.Context, tenantID uuid.UUID, today time.Time) (*report.FinanceStats, error) {
	stats := &report.FinanceStats{}
	var err error

	if stats.InvoicesByStatus, _, err = r.countBy(ctx, &models.InvoiceModel{}, tenantID, "status"); err != nil {
		return nil, err
	}

	issued := []finance.InvoiceStatus{
		finance.InvoiceStatusSent,
		finance.InvoiceStatusPartiallyPaid,
		finance.InvoiceStatusPaid,
		finance.InvoiceStatusOverdue,
	}
	if stats.TotalInvoiced, err = r.sum(ctx, &models.InvoiceModel{}, tenantID, "total", "status IN ?", issued); err != nil {
		return nil, err
	}
	if stats.TotalCollected, err = r.sum(ctx, &models.InvoiceModel{}, tenantID, "amount_paid", "status IN ?", issued); err != nil {
		return nil, err
	}
	stats.Outstanding = stats.TotalInvoiced.Sub(stats.TotalCollected)

	// Overdue covers invoices already flagged plus open ones past due that the sweep has not reached.
	overdueWhere := "(status = ? OR (status IN ? AND due_date < ?))"
	overdueArgs := []any{
		finance.InvoiceStatusOverdue,
		[]finance.InvoiceStatus{finance.InvoiceStatusSent, finance.InvoiceStatusPartiallyPaid},
		today,
	}
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where(overdueWhere, overdueArgs...).
		Count(&stats.OverdueCount).Error; err != nil {
		return nil, err
	}
	if stats.OverdueAmount, err = r.sum(ctx, &models.InvoiceModel{}, tenantID, "total - amount_paid", overdueWhere, overdueArgs...); err != nil {
		return nil, err
	}
	return stats, nil
}

// HRStats aggregates headcount and monthly payroll of employees on payroll
func (r *GormDashboardRepository) HRStats(ctx context.Context, tenantID uuid.UUID) (*report.HRStats, error) {
	stats := &report.HRStats{}
	var err error

	if stats.HeadcountByStatus, _, err = r.countBy(ctx, &models.EmployeeModel{}, tenantID, "status"); err != nil {
		return nil, err
	}
	onPayroll := []hr.EmployeeStatus{hr.EmployeeStatusActive, hr.EmployeeStatusOnLeave}
	for _, s := range onPayroll {
		stats.ActiveHeadcount += stats.HeadcountByStatus[string(s)]
	}
	if stats.MonthlyPayroll, err = r.sum(ctx, &models.EmployeeModel{}, tenantID, "monthly_salary", "status IN ?", onPayroll); err != nil {
		return nil, err
	}
	return stats, nil
}

// ProjectStats aggregates projects by status and their average progress
func (r *GormDashboardRepository) ProjectStats(ctx context.Context, tenantID uuid.UUID) (*report.ProjectStats, error) {
	stats := &report.ProjectStats{}
	var err error

	if stats.ProjectsByStatus, _, err = r.countBy(ctx, &models.ProjectModel{}, tenantID, "status"); err != nil {
		return nil, err
	}
	var avg struct {
		Progress float64
	}
	if err := r.db.WithContext(ctx).Model(&models.ProjectModel{}).
		Scopes(tenant.Scope(tenantID)).
		Select("COALESCE(AVG(progress), 0) AS progress").
		Scan(&avg).Error; err != nil {
		return nil, err
	}
	stats.AverageProgress = avg.Progress
	return stats, nil
}

// KnowledgeStats aggregates documents by status and the searchable chunk count
func (r *GormDashboardRepository) KnowledgeStats(ctx context.Context, tenantID uuid.UUID) (*report.KnowledgeStats, error) {
	stats := &report.KnowledgeStats{}
	var err error

	if stats.DocumentsByStatus, _, err = r.countBy(ctx, &models.DocumentModel{}, tenantID, "status"); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.ChunkModel{}).
		Joins("JOIN knowledge_documents d ON d.id = knowledge_chunks.document_id AND d.deleted_at IS NULL AND d.status = ?",
			knowledge.DocumentStatusIndexed).
		Where("knowledge_chunks.tenant_id = ?", tenantID).
		Count(&stats.ChunkCount).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
