package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/infrastructure/scheduler"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func reindexCommand(c *cli.Context, e *env) error {
	tenant, err := e.resolveTenant(c.Context, c.String("tenant"))
	if err != nil {
		return err
	}

	if ref := c.String("document"); ref != "" {
		id, err := uuid.Parse(ref)
		if err != nil {
			return cli.Exit("document must be a UUID", 2)
		}
		doc, err := e.documents.Reindex(c.Context, tenant.ID, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "reindexed %s: %d chunks, status %s\n", doc.Title, doc.ChunkCount, doc.Status)
		return nil
	}

	result, err := e.documents.ReindexAll(c.Context, tenant.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "reindexed %d documents\n", result.Reindexed)
	for _, id := range result.Failed {
		fmt.Fprintf(c.App.Writer, "failed    %s\n", id)
	}
	if len(result.Failed) > 0 {
		return cli.Exit(fmt.Sprintf("%d documents failed", len(result.Failed)), 1)
	}
	return nil
}

func routingRunCommand(c *cli.Context, e *env) error {
	tenant, err := e.resolveTenant(c.Context, c.String("tenant"))
	if err != nil {
		return err
	}
	result, err := e.routing.RouteUnassigned(c.Context, tenant.ID, c.String("strategy"), c.Int("limit"))
	if err != nil {
		return err
	}
	for _, r := range result.Routed {
		fmt.Fprintf(c.App.Writer, "%s -> %s (%s)\n", r.ContactID, r.RepName, r.Reason)
	}
	fmt.Fprintf(c.App.Writer, "strategy %s: %d considered, %d routed, %d left unassigned\n",
		result.Strategy, result.Considered, len(result.Routed), len(result.Unrouted))
	return nil
}

// jobsRunCommand runs a maintenance job inline, the way the server scheduler would
func jobsRunCommand(c *cli.Context, e *env) error {
	jobType := scheduler.JobType(c.String("type"))
	if !jobType.IsValid() {
		return cli.Exit(fmt.Sprintf("unknown job type %q", jobType), 2)
	}

	var tenantIDs []uuid.UUID
	if ref := c.String("tenant"); ref != "" {
		tenant, err := e.resolveTenant(c.Context, ref)
		if err != nil {
			return err
		}
		tenantIDs = []uuid.UUID{tenant.ID}
	} else {
		ids, err := e.tenantRepo.FindOperationalIDs(c.Context)
		if err != nil {
			return err
		}
		tenantIDs = ids
	}

	executor := scheduler.NewMaintenanceExecutor(scheduler.ExecutorConfig{
		RoutingStrategy: c.String("strategy"),
		RoutingBatch:    c.Int("limit"),
	}, e.tenantRepo, e.invoices, e.routing, e.log)

	failed := 0
	for _, id := range tenantIDs {
		if err := executor.Execute(c.Context, scheduler.NewJob(id, jobType, 0)); err != nil {
			failed++
			e.log.Error("Maintenance job failed", zap.String("tenant_id", id.String()), zap.Error(err))
		}
	}
	fmt.Fprintf(c.App.Writer, "%s: ran for %d tenants, %d failed\n", jobType, len(tenantIDs), failed)
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d tenants failed", failed), 1)
	}
	return nil
}
