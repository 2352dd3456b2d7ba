package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/identity"
	"go.uber.org/zap"
)

// OverdueSweeper flags sent invoices past their due date
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// LeadRouter assigns unassigned open leads to reps
type LeadRouter interface {
	RouteUnassignedLeads(ctx context.Context, tenantID uuid.UUID, strategy string, limit int) (routed, unrouted int, err error)
}

// TenantLookup loads a tenant to check its status and modules
type TenantLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error)
}

// ExecutorConfig tunes the lead routing job
type ExecutorConfig struct {
	RoutingStrategy string // empty uses the routing service default
	RoutingBatch    int
}

// MaintenanceExecutor runs maintenance jobs for tenants that license the owning module
type MaintenanceExecutor struct {
	config   ExecutorConfig
	tenants  TenantLookup
	invoices OverdueSweeper
	routing  LeadRouter
	logger   *zap.Logger
}

// NewMaintenanceExecutor creates the executor. A nil sweeper or router makes its job a no-op.
func NewMaintenanceExecutor(config ExecutorConfig, tenants TenantLookup, invoices OverdueSweeper, routing LeadRouter, logger *zap.Logger) *MaintenanceExecutor {
	return &MaintenanceExecutor{
		config:   config,
		tenants:  tenants,
		invoices: invoices,
		routing:  routing,
		logger:   logger,
	}
}

// Execute implements JobExecutor
func (e *MaintenanceExecutor) Execute(ctx context.Context, job *Job) error {
	module, ok := jobModules[job.Type]
	if !ok {
		return ErrInvalidJobType
	}

	tenant, err := e.tenants.FindByID(ctx, job.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}
	if !tenant.IsOperational() || !tenant.HasModule(module) {
		e.logger.Debug("Skipping maintenance job",
			zap.String("tenant_id", job.TenantID.String()),
			zap.String("job_type", string(job.Type)),
			zap.String("module", string(module)))
		return nil
	}

	switch job.Type {
	case JobTypeOverdueInvoices:
		return e.sweepOverdue(ctx, job.TenantID)
	default:
		return e.routeLeads(ctx, job.TenantID)
	}
}

var jobModules = map[JobType]identity.ModuleKey{
	JobTypeOverdueInvoices: identity.ModuleFinance,
	JobTypeLeadRouting:     identity.ModuleCRM,
}

func (e *MaintenanceExecutor) sweepOverdue(ctx context.Context, tenantID uuid.UUID) error {
	if e.invoices == nil {
		return nil
	}
	if _, err := e.invoices.MarkOverdue(ctx, tenantID); err != nil {
		return fmt.Errorf("mark overdue invoices: %w", err)
	}
	return nil
}

func (e *MaintenanceExecutor) routeLeads(ctx context.Context, tenantID uuid.UUID) error {
	if e.routing == nil {
		return nil
	}
	routed, unrouted, err := e.routing.RouteUnassignedLeads(ctx, tenantID, e.config.RoutingStrategy, e.config.RoutingBatch)
	if err != nil {
		return fmt.Errorf("route unassigned leads: %w", err)
	}
	if routed > 0 || unrouted > 0 {
		e.logger.Info("Scheduled lead routing finished",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("routed", routed),
			zap.Int("unrouted", unrouted))
	}
	return nil
}
