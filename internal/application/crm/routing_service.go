package crm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultBatchSize = 100
	maxBatchSize     = 500
)

// Routing outcomes reported to the recorder
const (
	OutcomeAssigned = "assigned"
	OutcomeNoRep    = "no_rep"
	OutcomeFailed   = "failed"
)

// RoutingRecorder observes routing outcomes
type RoutingRecorder interface {
	RecordLeadRouted(ctx context.Context, strategy, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordLeadRouted(context.Context, string, string) {}

// RoutingService assigns open leads to sales reps
type RoutingService struct {
	contactRepo     crm.ContactRepository
	territoryRepo   crm.TerritoryRepository
	userRepo        identity.UserRepository
	router          *crm.LeadRouter
	recorder        RoutingRecorder
	defaultStrategy crm.RoutingStrategy
	now             func() time.Time
	logger          *zap.Logger
}

// NewRoutingService creates a routing service. A nil recorder disables outcome reporting.
func NewRoutingService(
	contactRepo crm.ContactRepository,
	territoryRepo crm.TerritoryRepository,
	userRepo identity.UserRepository,
	recorder RoutingRecorder,
	logger *zap.Logger,
) *RoutingService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &RoutingService{
		contactRepo:     contactRepo,
		territoryRepo:   territoryRepo,
		userRepo:        userRepo,
		router:          crm.NewLeadRouter(),
		recorder:        recorder,
		defaultStrategy: crm.RoutingTerritory,
		now:             time.Now,
		logger:          logger,
	}
}

// WithDefaultStrategy overrides the strategy used when callers pass none
func (s *RoutingService) WithDefaultStrategy(strategy string) *RoutingService {
	if st := crm.RoutingStrategy(strategy); st.IsValid() {
		s.defaultStrategy = st
	}
	return s
}

// routingPool is a snapshot of the reps and territories of one tenant.
// Loads are updated in place as leads are assigned so a batch stays balanced.
type routingPool struct {
	loads       []crm.RepLoad
	users       map[uuid.UUID]*identity.User
	territories []crm.Territory
}

func (p *routingPool) bump(repID uuid.UUID, at time.Time) {
	for i := range p.loads {
		if p.loads[i].RepID == repID {
			p.loads[i].OpenLeads++
			p.loads[i].LastAssignedAt = &at
			return
		}
	}
}

func (s *RoutingService) parseStrategy(strategy string) (crm.RoutingStrategy, error) {
	if strategy == "" {
		return s.defaultStrategy, nil
	}
	st := crm.RoutingStrategy(strategy)
	if !st.IsValid() {
		return "", shared.NewDomainError("INVALID_STRATEGY", "Invalid routing strategy")
	}
	return st, nil
}

func (s *RoutingService) loadPool(ctx context.Context, tenantID uuid.UUID) (*routingPool, error) {
	reps, err := s.userRepo.FindSalesReps(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	counts, err := s.contactRepo.CountOpenByAssignee(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	territories, err := s.territoryRepo.FindActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	pool := &routingPool{
		loads:       make([]crm.RepLoad, 0, len(reps)),
		users:       make(map[uuid.UUID]*identity.User, len(reps)),
		territories: territories,
	}
	for i := range reps {
		u := &reps[i]
		pool.users[u.ID] = u
		pool.loads = append(pool.loads, crm.RepLoad{
			RepID:          u.ID,
			Name:           u.Name,
			OpenLeads:      counts[u.ID],
			MaxOpenLeads:   u.MaxOpenLeads,
			LastAssignedAt: u.LastAssignedAt,
			Active:         u.IsRoutable(),
		})
	}
	return pool, nil
}

func (s *RoutingService) assign(ctx context.Context, pool *routingPool, contact *crm.Contact, strategy crm.RoutingStrategy) (*RoutingResult, error) {
	decision, err := s.router.Route(contact.ContactProfile, strategy, pool.loads, pool.territories)
	if err != nil {
		return nil, err
	}
	if err := contact.AssignTo(decision.RepID, decision.TerritoryID); err != nil {
		return nil, err
	}
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}

	now := s.now()
	pool.bump(decision.RepID, now)
	result := &RoutingResult{
		ContactID:   contact.ID,
		RepID:       decision.RepID,
		TerritoryID: decision.TerritoryID,
		Strategy:    string(decision.Strategy),
		Reason:      decision.Reason,
	}
	if rep, ok := pool.users[decision.RepID]; ok {
		result.RepName = rep.Name
		rep.MarkAssigned(now)
		if err := s.userRepo.Save(ctx, rep); err != nil {
			// the contact assignment is already persisted
			s.logger.Warn("Failed to record assignment time",
				zap.String("rep_id", rep.ID.String()),
				zap.Error(err))
		}
	}
	return result, nil
}

func (s *RoutingService) record(ctx context.Context, strategy crm.RoutingStrategy, err error) {
	switch {
	case err == nil:
		s.recorder.RecordLeadRouted(ctx, string(strategy), OutcomeAssigned)
	case errors.Is(err, crm.ErrNoEligibleRep):
		s.recorder.RecordLeadRouted(ctx, string(strategy), OutcomeNoRep)
	default:
		s.recorder.RecordLeadRouted(ctx, string(strategy), OutcomeFailed)
	}
}

// RouteLead assigns one open lead
func (s *RoutingService) RouteLead(ctx context.Context, tenantID, contactID uuid.UUID, strategy string) (_ *RoutingResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "crm", "route_lead",
		telemetry.AttrTenantID.String(tenantID.String()),
		attribute.String("contact_id", contactID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	st, err := s.parseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}
	if !contact.IsOpenLead() {
		return nil, shared.NewDomainError("INVALID_STATE", "Only open leads can be routed")
	}
	return s.routeContact(ctx, contact, st)
}

// routeContact assigns an already loaded contact
func (s *RoutingService) routeContact(ctx context.Context, contact *crm.Contact, strategy crm.RoutingStrategy) (*RoutingResult, error) {
	pool, err := s.loadPool(ctx, contact.TenantID)
	if err != nil {
		return nil, err
	}
	result, err := s.assign(ctx, pool, contact, strategy)
	s.record(ctx, strategy, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Lead routed",
		zap.String("tenant_id", contact.TenantID.String()),
		zap.String("contact_id", contact.ID.String()),
		zap.String("rep_id", result.RepID.String()),
		zap.String("strategy", result.Strategy),
		zap.String("reason", result.Reason))
	return result, nil
}

// RouteUnassigned assigns up to limit unassigned open leads, oldest first.
// Leads no rep can take are reported as unrouted.
func (s *RoutingService) RouteUnassigned(ctx context.Context, tenantID uuid.UUID, strategy string, limit int) (_ *BatchRoutingResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "crm", "route_unassigned",
		telemetry.AttrTenantID.String(tenantID.String()),
		telemetry.AttrStrategy.String(strategy))
	defer func() { telemetry.EndSpan(span, err) }()

	st, err := s.parseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultBatchSize
	}
	limit = min(limit, maxBatchSize)

	contacts, err := s.contactRepo.FindUnassignedOpen(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}
	result := &BatchRoutingResult{
		Strategy:   string(st),
		Considered: len(contacts),
		Routed:     []RoutingResult{},
		Unrouted:   []uuid.UUID{},
	}
	if len(contacts) == 0 {
		return result, nil
	}

	pool, err := s.loadPool(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range contacts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		contact := &contacts[i]
		routed, err := s.assign(ctx, pool, contact, st)
		s.record(ctx, st, err)
		if errors.Is(err, crm.ErrNoEligibleRep) {
			result.Unrouted = append(result.Unrouted, contact.ID)
			continue
		}
		if err != nil {
			s.logger.Error("Batch routing aborted",
				zap.String("tenant_id", tenantID.String()),
				zap.String("contact_id", contact.ID.String()),
				zap.Error(err))
			return nil, err
		}
		result.Routed = append(result.Routed, *routed)
	}

	s.logger.Info("Unassigned leads routed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("strategy", result.Strategy),
		zap.Int("routed", len(result.Routed)),
		zap.Int("unrouted", len(result.Unrouted)))
	return result, nil
}

// RouteUnassignedLeads runs RouteUnassigned and reports only the counts
func (s *RoutingService) RouteUnassignedLeads(ctx context.Context, tenantID uuid.UUID, strategy string, limit int) (routed, unrouted int, err error) {
	result, err := s.RouteUnassigned(ctx, tenantID, strategy, limit)
	if err != nil {
		return 0, 0, err
	}
	return len(result.Routed), len(result.Unrouted), nil
}
