// Command payaidctl is the operator CLI: tenant bootstrap, demo data, territory
// import, knowledge reindexing, batch lead routing and maintenance jobs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	crmapp "github.com/payaid/backend/internal/application/crm"
	financeapp "github.com/payaid/backend/internal/application/finance"
	identityapp "github.com/payaid/backend/internal/application/identity"
	knowledgeapp "github.com/payaid/backend/internal/application/knowledge"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/infrastructure/ai"
	"github.com/payaid/backend/internal/infrastructure/auth"
	"github.com/payaid/backend/internal/infrastructure/config"
	"github.com/payaid/backend/internal/infrastructure/extract"
	"github.com/payaid/backend/internal/infrastructure/logger"
	"github.com/payaid/backend/internal/infrastructure/persistence"
	"github.com/payaid/backend/internal/infrastructure/storage"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var tenantFlag = &cli.StringFlag{
	Name:     "tenant",
	Aliases:  []string{"t"},
	Usage:    "tenant code or ID",
	Required: true,
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "payaidctl",
		Usage: "PayAid operator tool",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "log level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "tenant",
				Usage: "manage tenants",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "provision a tenant and its owner",
						Action: withEnv(tenantCreateCommand),
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "code", Usage: "unique tenant code", Required: true},
							&cli.StringFlag{Name: "name", Usage: "display name", Required: true},
							&cli.StringFlag{Name: "plan", Usage: "free, starter, professional or enterprise", Value: string(identity.TenantPlanFree)},
							&cli.IntFlag{Name: "trial-days", Usage: "start as a trial of this many days"},
							&cli.StringFlag{Name: "owner-name", Usage: "owner display name", Value: "Owner"},
							&cli.StringFlag{Name: "owner-email", Usage: "owner login email", Required: true},
							&cli.StringFlag{Name: "owner-password", Usage: "owner password", Required: true, EnvVars: []string{"PAYAID_OWNER_PASSWORD"}},
							&cli.StringSliceFlag{Name: "module", Usage: "enable a module beyond the plan defaults (repeatable)"},
						},
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "generate demo sales reps and contacts",
				Action: withEnv(seedCommand),
				Flags: []cli.Flag{
					tenantFlag,
					&cli.IntFlag{Name: "contacts", Usage: "number of contacts", Value: 50},
					&cli.IntFlag{Name: "reps", Usage: "number of sales reps", Value: 3},
					&cli.Uint64Flag{Name: "seed", Usage: "random seed, 0 picks one"},
					&cli.BoolFlag{Name: "auto-assign", Usage: "route each contact as it is created"},
				},
			},
			{
				Name:  "territory",
				Usage: "manage sales territories",
				Subcommands: []*cli.Command{
					{
						Name:   "import",
						Usage:  "create territories from a YAML file",
						Action: withEnv(territoryImportCommand),
						Flags: []cli.Flag{
							tenantFlag,
							&cli.PathFlag{Name: "file", Aliases: []string{"f"}, Usage: "territories YAML", Required: true},
						},
					},
				},
			},
			{
				Name:  "knowledge",
				Usage: "manage the knowledge base",
				Subcommands: []*cli.Command{
					{
						Name:   "reindex",
						Usage:  "re-embed one document or every document of a tenant",
						Action: withEnv(reindexCommand),
						Flags: []cli.Flag{
							tenantFlag,
							&cli.StringFlag{Name: "document", Usage: "document ID; all documents when omitted"},
						},
					},
				},
			},
			{
				Name:  "jobs",
				Usage: "maintenance jobs",
				Subcommands: []*cli.Command{
					{
						Name:   "run",
						Usage:  "run a maintenance job once, for one tenant or all operational tenants",
						Action: withEnv(jobsRunCommand),
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "type", Usage: "overdue_invoices or lead_routing", Required: true},
							&cli.StringFlag{Name: "tenant", Usage: "tenant ID or code; all operational tenants when omitted"},
							&cli.StringFlag{Name: "strategy", Usage: "routing strategy for lead_routing"},
							&cli.IntFlag{Name: "limit", Usage: "maximum leads per tenant for lead_routing", Value: 100},
						},
					},
				},
			},
			{
				Name:  "routing",
				Usage: "lead routing",
				Subcommands: []*cli.Command{
					{
						Name:   "run",
						Usage:  "route unassigned leads",
						Action: withEnv(routingRunCommand),
						Flags: []cli.Flag{
							tenantFlag,
							&cli.StringFlag{Name: "strategy", Usage: "round_robin, least_loaded or territory"},
							&cli.IntFlag{Name: "limit", Usage: "maximum leads to route", Value: 100},
						},
					},
				},
			},
		},
	}
}

// env holds the services the commands run against
type env struct {
	log         *zap.Logger
	db          *persistence.Database
	tenantRepo  *persistence.GormTenantRepository
	userRepo    identity.UserRepository
	tenants     *identityapp.TenantService
	users       *identityapp.UserService
	contacts    *crmapp.ContactService
	territories *crmapp.TerritoryService
	routing     *crmapp.RoutingService
	invoices    *financeapp.InvoiceService
	documents   *knowledgeapp.DocumentService
}

func (e *env) Close() {
	if e.documents != nil {
		e.documents.Close()
	}
	if err := e.db.Close(); err != nil {
		e.log.Warn("Error closing database", zap.Error(err))
	}
	_ = e.log.Sync()
}

type envAction func(c *cli.Context, e *env) error

func withEnv(fn envAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := openEnv(c.Context, c.String("log-level"))
		if err != nil {
			return err
		}
		defer e.Close()
		return fn(c, e)
	}
}

func openEnv(ctx context.Context, level string) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.New(logger.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := persistence.NewDatabase(&cfg.Database, logger.NewGormLogger(log, logger.GormLevel("warn"), cfg.Telemetry.DBSlowQueryThresh))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var objects knowledgeapp.ObjectStorage = storage.NewMemoryObjectStorage()
	if cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		objects = s3Storage
	}
	providers, err := ai.NewProviders(cfg.AI, cfg.Knowledge.EmbedBatchSize, nil, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize AI providers: %w", err)
	}

	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	contactRepo := persistence.NewGormContactRepository(db.DB)
	territoryRepo := persistence.NewGormTerritoryRepository(db.DB)

	routing := crmapp.NewRoutingService(contactRepo, territoryRepo, userRepo, nil, log)
	documents, err := knowledgeapp.NewDocumentService(
		persistence.NewGormDocumentRepository(db.DB),
		persistence.NewGormChunkRepository(db.DB),
		objects, extract.New(cfg.HTTP.MaxBodySize), providers.Embedder, nil,
		knowledgeapp.Options{
			ChunkSize:      cfg.Knowledge.ChunkSize,
			ChunkOverlap:   cfg.Knowledge.ChunkOverlap,
			EmbedBatchSize: cfg.Knowledge.EmbedBatchSize,
			EmbedWorkers:   cfg.Knowledge.EmbedWorkers,
		}, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &env{
		log:         log,
		db:          db,
		tenantRepo:  tenantRepo,
		userRepo:    userRepo,
		tenants:     identityapp.NewTenantService(tenantRepo, userRepo, log),
		users:       identityapp.NewUserService(userRepo, auth.NewJWTService(cfg.JWT), auth.NewMemoryTokenBlacklist(), log),
		contacts:    crmapp.NewContactService(contactRepo, userRepo, routing, log),
		territories: crmapp.NewTerritoryService(territoryRepo, userRepo, log),
		routing:     routing,
		invoices:    financeapp.NewInvoiceService(persistence.NewGormInvoiceRepository(db.DB), contactRepo, log),
		documents:   documents,
	}, nil
}

// resolveTenant accepts a tenant ID or code
func (e *env) resolveTenant(ctx context.Context, ref string) (*identity.Tenant, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return e.tenantRepo.FindByID(ctx, id)
	}
	t, err := e.tenantRepo.FindByCode(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("tenant %q: %w", ref, err)
	}
	return t, nil
}
