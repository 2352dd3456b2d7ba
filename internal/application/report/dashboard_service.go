package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/report"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/cache"
	"github.com/payaid/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultCacheTTL bounds dashboard staleness when no TTL is configured
const DefaultCacheTTL = 5 * time.Minute

// CacheRecorder counts dashboard cache lookups
type CacheRecorder interface {
	RecordDashboardCache(ctx context.Context, hit bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordDashboardCache(context.Context, bool) {}

// DashboardService aggregates per-module statistics for a tenant
type DashboardService struct {
	tenantRepo identity.TenantRepository
	repo       report.DashboardRepository
	cache      cache.Cache
	ttl        time.Duration
	recorder   CacheRecorder
	now        func() time.Time
	logger     *zap.Logger
}

// NewDashboardService creates the dashboard service
func NewDashboardService(
	tenantRepo identity.TenantRepository,
	repo report.DashboardRepository,
	c cache.Cache,
	ttl time.Duration,
	recorder CacheRecorder,
	logger *zap.Logger,
) *DashboardService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &DashboardService{
		tenantRepo: tenantRepo,
		repo:       repo,
		cache:      c,
		ttl:        ttl,
		recorder:   recorder,
		now:        time.Now,
		logger:     logger,
	}
}

// cacheKey includes the module set so licensing changes never serve stale sections
func cacheKey(tenant *identity.Tenant) string {
	return fmt.Sprintf("dashboard:%s:%s", tenant.ID, tenant.Modules.String())
}

// Stats returns the dashboard, from cache unless refresh is set
func (s *DashboardService) Stats(ctx context.Context, tenantID uuid.UUID, refresh bool) (_ *report.DashboardStats, err error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.HasModule(identity.ModuleDashboard) {
		return nil, shared.ErrModuleNotLicensed.WithDetail("module", string(identity.ModuleDashboard))
	}

	key := cacheKey(tenant)
	if !refresh && s.cache != nil {
		var cached report.DashboardStats
		switch err := cache.GetJSON(ctx, s.cache, key, &cached); {
		case err == nil:
			s.recorder.RecordDashboardCache(ctx, true)
			cached.Cached = true
			return &cached, nil
		case !errors.Is(err, cache.ErrMiss):
			s.logger.Warn("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.recorder.RecordDashboardCache(ctx, false)
	}

	ctx, span := telemetry.StartSpan(ctx, "report", "dashboard",
		telemetry.AttrTenantID.String(tenantID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	stats, err := s.aggregate(ctx, tenant)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, stats, s.ttl); err != nil {
			s.logger.Warn("Dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	s.logger.Debug("Dashboard computed",
		zap.String("tenant_id", tenantID.String()),
		zap.Strings("modules", stats.Modules),
		zap.Bool("refresh", refresh))
	return stats, nil
}

func (s *DashboardService) aggregate(ctx context.Context, tenant *identity.Tenant) (*report.DashboardStats, error) {
	now := s.now().In(tenantLocation(tenant))
	stats := &report.DashboardStats{
		TenantID:    tenant.ID,
		GeneratedAt: now.UTC(),
		Modules:     []string{},
	}

	var err error
	for _, module := range identity.AllModules {
		if !tenant.HasModule(module) {
			continue
		}
		switch module {
		case identity.ModuleCRM:
			stats.CRM, err = s.repo.CRMStats(ctx, tenant.ID, report.MonthStart(now))
		case identity.ModuleFinance:
			stats.Finance, err = s.repo.FinanceStats(ctx, tenant.ID, now)
		case identity.ModuleHR:
			stats.HR, err = s.repo.HRStats(ctx, tenant.ID)
		case identity.ModuleProjects:
			stats.Projects, err = s.repo.ProjectStats(ctx, tenant.ID)
		case identity.ModuleKnowledge:
			stats.Knowledge, err = s.repo.KnowledgeStats(ctx, tenant.ID)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s stats: %w", module, err)
		}
		stats.Modules = append(stats.Modules, string(module))
	}
	return stats, nil
}

func tenantLocation(tenant *identity.Tenant) *time.Location {
	if tenant.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
