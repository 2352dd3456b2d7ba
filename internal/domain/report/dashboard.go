// Package report holds read models for tenant dashboards. They are
// aggregated in SQL and never mutated by the domain.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CRMStats summarizes contacts and the deal pipeline
type CRMStats struct {
	ContactsByStage       map[string]int64 `json:"contacts_by_stage"`
	TotalContacts         int64            `json:"total_contacts"`
	UnassignedOpenLeads   int64            `json:"unassigned_open_leads"`
	DealsByStage          map[string]int64 `json:"deals_by_stage"`
	OpenPipelineValue     decimal.Decimal  `json:"open_pipeline_value"`
	WeightedPipelineValue decimal.Decimal  `json:"weighted_pipeline_value"`
	WonThisMonth          decimal.Decimal  `json:"won_this_month"`
}

// FinanceStats summarizes invoicing and collections
type FinanceStats struct {
	InvoicesByStatus map[string]int64 `json:"invoices_by_status"`
	TotalInvoiced    decimal.Decimal  `json:"total_invoiced"`
	TotalCollected   decimal.Decimal  `json:"total_collected"`
	Outstanding      decimal.Decimal  `json:"outstanding"`
	OverdueCount     int64            `json:"overdue_count"`
	OverdueAmount    decimal.Decimal  `json:"overdue_amount"`
}

// HRStats summarizes headcount and payroll
type HRStats struct {
	HeadcountByStatus map[string]int64 `json:"headcount_by_status"`
	ActiveHeadcount   int64            `json:"active_headcount"`
	MonthlyPayroll    decimal.Decimal  `json:"monthly_payroll"`
}

// ProjectStats summarizes project delivery
type ProjectStats struct {
	ProjectsByStatus map[string]int64 `json:"projects_by_status"`
	AverageProgress  float64          `json:"average_progress"`
}

// KnowledgeStats summarizes the knowledge base
type KnowledgeStats struct {
	DocumentsByStatus map[string]int64 `json:"documents_by_status"`
	ChunkCount        int64            `json:"chunk_count"`
}

// DashboardStats is the per-tenant dashboard. Sections of unlicensed modules stay nil.
type DashboardStats struct {
	TenantID    uuid.UUID       `json:"tenant_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Modules     []string        `json:"modules"`
	CRM         *CRMStats       `json:"crm,omitempty"`
	Finance     *FinanceStats   `json:"finance,omitempty"`
	HR          *HRStats        `json:"hr,omitempty"`
	Projects    *ProjectStats   `json:"projects,omitempty"`
	Knowledge   *KnowledgeStats `json:"knowledge,omitempty"`
	Cached      bool            `json:"cached"`
}

// DashboardRepository runs the aggregation queries behind the dashboard
type DashboardRepository interface {
	CRMStats(ctx context.Context, tenantID uuid.UUID, monthStart time.Time) (*CRMStats, error)
	FinanceStats(ctx context.Context, tenantID uuid.UUID, today time.Time) (*FinanceStats, error)
	HRStats(ctx context.Context, tenantID uuid.UUID) (*HRStats, error)
	ProjectStats(ctx context.Context, tenantID uuid.UUID) (*ProjectStats, error)
	KnowledgeStats(ctx context.Context, tenantID uuid.UUID) (*KnowledgeStats, error)
}

// MonthStart returns midnight of the first day of t's month, in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
