package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/payaid/backend/internal/application/assistant"
	crmapp "github.com/payaid/backend/internal/application/crm"
	financeapp "github.com/payaid/backend/internal/application/finance"
	hrapp "github.com/payaid/backend/internal/application/hr"
	identityapp "github.com/payaid/backend/internal/application/identity"
	knowledgeapp "github.com/payaid/backend/internal/application/knowledge"
	projectsapp "github.com/payaid/backend/internal/application/projects"
	reportapp "github.com/payaid/backend/internal/application/report"
	"github.com/payaid/backend/internal/infrastructure/ai"
	"github.com/payaid/backend/internal/infrastructure/auth"
	"github.com/payaid/backend/internal/infrastructure/cache"
	"github.com/payaid/backend/internal/infrastructure/config"
	"github.com/payaid/backend/internal/infrastructure/extract"
	"github.com/payaid/backend/internal/infrastructure/logger"
	"github.com/payaid/backend/internal/infrastructure/persistence"
	"github.com/payaid/backend/internal/infrastructure/scheduler"
	"github.com/payaid/backend/internal/infrastructure/storage"
	"github.com/payaid/backend/internal/infrastructure/telemetry"
	"github.com/payaid/backend/internal/interfaces/http/handler"
	"github.com/payaid/backend/internal/interfaces/http/middleware"
	"github.com/payaid/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/payaid/backend/docs"
)

//	@title			PayAid API
//	@version		3.0
//	@description	Multi-tenant business backend: CRM, finance, HR, projects, knowledge base and AI assistant.

//	@contact.name	PayAid Engineering
//	@contact.email	engineering@payaid.in

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// shutdownTimeout bounds graceful shutdown of the HTTP server and background work
const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	telemetry.ServiceVersion = version

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	bootLog := logger.MustNew(logCfg)

	ctx := context.Background()

	// Telemetry first so the logger can forward to the OTLP log pipeline
	tel, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	var extraCores []zapcore.Core
	if core := tel.OTELCore(); core != nil {
		extraCores = append(extraCores, core)
	}
	log, err := logger.New(logCfg, extraCores...)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting PayAid backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	meter := tel.Meter.Meter("github.com/payaid/backend")
	if sqlDB, err := db.DB.DB(); err == nil {
		dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, sqlDB, meter, log)
		if err != nil {
			log.Fatal("Failed to register database metrics", zap.Error(err))
		}
		defer dbMetrics.Stop()
	}

	domainMetrics, err := telemetry.NewDomainMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create domain metrics", zap.Error(err))
	}

	// Redis backs the token blacklist and the dashboard cache. The server still
	// starts without it; both fall back to process memory.
	readiness := map[string]handler.Pinger{"database": db}
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, using in-memory cache and blacklist",
				zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		} else {
			defer func() {
				_ = redisClient.Close()
			}()
			readiness["redis"] = redisPinger{redisClient}
		}
	}

	var blacklist auth.TokenBlacklist = auth.NewMemoryTokenBlacklist()
	cacheFactory := cache.NewFactory(cache.WithLogger(log))
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		cacheFactory = cache.NewFactory(cache.WithLogger(log), cache.WithRedis(redisClient))
	}

	// Object storage for knowledge documents
	var objects knowledgeapp.ObjectStorage
	if cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.String("bucket", cfg.Storage.Bucket), zap.Error(err))
		}
		objects = s3Storage
	} else {
		log.Warn("No storage bucket configured, knowledge files are kept in memory")
		objects = storage.NewMemoryObjectStorage()
	}

	// AI providers
	providers, err := ai.NewProviders(cfg.AI, cfg.Knowledge.EmbedBatchSize, domainMetrics, log)
	if err != nil {
		log.Fatal("Failed to initialize AI providers", zap.Error(err))
	}
	if providers.Embedder == nil {
		log.Warn("No embedding provider configured, knowledge search is text only")
	}

	// Repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	contactRepo := persistence.NewGormContactRepository(db.DB)
	territoryRepo := persistence.NewGormTerritoryRepository(db.DB)
	dealRepo := persistence.NewGormDealRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	employeeRepo := persistence.NewGormEmployeeRepository(db.DB)
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	docRepo := persistence.NewGormDocumentRepository(db.DB)
	chunkRepo := persistence.NewGormChunkRepository(db.DB)
	dashboardRepo := persistence.NewGormDashboardRepository(db.DB)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	tenantService := identityapp.NewTenantService(tenantRepo, userRepo, log)
	authService := identityapp.NewAuthService(tenantService, tenantRepo, userRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserService(userRepo, jwtService, blacklist, log)

	routingService := crmapp.NewRoutingService(contactRepo, territoryRepo, userRepo, domainMetrics, log)
	contactService := crmapp.NewContactService(contactRepo, userRepo, routingService, log)
	territoryService := crmapp.NewTerritoryService(territoryRepo, userRepo, log)
	dealService := crmapp.NewDealService(dealRepo, contactRepo, userRepo, log)

	invoiceService := financeapp.NewInvoiceService(invoiceRepo, contactRepo, log)
	employeeService := hrapp.NewEmployeeService(employeeRepo, userRepo, log)
	projectService := projectsapp.NewProjectService(projectRepo, userRepo, contactRepo, log)

	documentService, err := knowledgeapp.NewDocumentService(docRepo, chunkRepo, objects,
		extract.New(cfg.HTTP.MaxBodySize), providers.Embedder, domainMetrics,
		knowledgeapp.Options{
			ChunkSize:      cfg.Knowledge.ChunkSize,
			ChunkOverlap:   cfg.Knowledge.ChunkOverlap,
			EmbedBatchSize: cfg.Knowledge.EmbedBatchSize,
			EmbedWorkers:   cfg.Knowledge.EmbedWorkers,
		}, log)
	if err != nil {
		log.Fatal("Failed to initialize knowledge ingestion", zap.Error(err))
	}
	searchService := knowledgeapp.NewSearchService(docRepo, chunkRepo, providers.Embedder, domainMetrics,
		knowledgeapp.SearchOptions{DefaultTopK: cfg.Knowledge.DefaultTopK, MinScore: cfg.Knowledge.MinScore}, log)
	chatService := assistant.NewChatService(tenantRepo, searchService, providers.Chat, log)

	dashboardCache := cacheFactory.Create(cfg.Dashboard.CacheBackend, "payaid:dashboard:")
	dashboardService := reportapp.NewDashboardService(tenantRepo, dashboardRepo, dashboardCache,
		cfg.Dashboard.CacheTTL, domainMetrics, log)

	// Background maintenance: overdue invoice sweep and periodic lead routing
	var (
		jobScheduler *scheduler.Scheduler
		jobTrigger   *scheduler.Trigger
	)
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewMaintenanceExecutor(scheduler.ExecutorConfig{
			RoutingStrategy: cfg.Scheduler.RoutingStrategy,
			RoutingBatch:    cfg.Scheduler.RoutingBatch,
		}, tenantRepo, invoiceService, routingService, log)
		schedCfg := scheduler.DefaultConfig()
		schedCfg.Workers = cfg.Scheduler.Workers
		jobScheduler = scheduler.NewScheduler(schedCfg, executor, domainMetrics, log)
		jobTrigger = scheduler.NewTrigger(scheduler.TriggerConfig{
			CheckInterval: cfg.Scheduler.CheckInterval,
			Intervals: map[scheduler.JobType]time.Duration{
				scheduler.JobTypeOverdueInvoices: cfg.Scheduler.OverdueInterval,
				scheduler.JobTypeLeadRouting:     cfg.Scheduler.RoutingInterval,
			},
		}, jobScheduler, tenantRepo, log)
		if err := jobScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
		}
		if err := jobTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start maintenance trigger", zap.Error(err))
		}
	}

	// Licensed modules are checked per route group against a short-lived tenant cache
	moduleGuard := middleware.NewModuleGuard(tenantService, middleware.DefaultModuleCacheTTL)

	handlers := &router.Handlers{
		System:    handler.NewSystemHandler(version, readiness),
		Auth:      handler.NewAuthHandler(authService),
		Tenant:    handler.NewTenantHandler(tenantService, moduleGuard),
		User:      handler.NewUserHandler(userService),
		Contact:   handler.NewContactHandler(contactService),
		Territory: handler.NewTerritoryHandler(territoryService),
		Routing:   handler.NewRoutingHandler(routingService),
		Deal:      handler.NewDealHandler(dealService),
		Invoice:   handler.NewInvoiceHandler(invoiceService),
		Employee:  handler.NewEmployeeHandler(employeeService),
		Project:   handler.NewProjectHandler(projectService),
		Knowledge: handler.NewKnowledgeHandler(documentService, searchService),
		Assistant: handler.NewAssistantHandler(chatService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engineCfg := router.EngineConfig{
		Logger:      log,
		HTTP:        cfg.HTTP,
		Production:  cfg.App.IsProduction(),
		ServiceName: cfg.Telemetry.ServiceName,
		Tracing:     tel.Tracer.IsEnabled(),
		Profiling:   tel.Profiler.IsEnabled(),
		JWT:         middleware.DefaultJWTConfig(jwtService, blacklist, log),
		Swagger:     !cfg.App.IsProduction(),
	}
	if cfg.Metrics.Enabled {
		httpMetrics, err := middleware.NewHTTPMetrics("payaid")
		if err != nil {
			log.Fatal("Failed to register HTTP metrics", zap.Error(err))
		}
		engineCfg.Metrics = httpMetrics
		engineCfg.MetricsPath = cfg.Metrics.Path
	}
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
		defer rateLimiter.Close()
		engineCfg.RateLimiter = rateLimiter
		log.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.HTTP.RateLimitRPS),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}

	engine, err := router.NewEngine(engineCfg, handlers, moduleGuard)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if jobTrigger != nil {
		if err := jobTrigger.Stop(shutdownCtx); err != nil {
			log.Warn("Error stopping maintenance trigger", zap.Error(err))
		}
		if err := jobScheduler.Stop(shutdownCtx); err != nil {
			log.Warn("Error stopping maintenance scheduler", zap.Error(err))
		}
	}

	// Wait for in-flight document indexing before the database closes
	documentService.Close()
	if err := moduleGuard.Close(); err != nil {
		log.Warn("Error stopping module cache", zap.Error(err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error flushing telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// redisPinger adapts the redis client to the readiness check
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
