package crm

import (
	"bytes"
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
)

// RoutingStrategy selects how a lead is assigned
type RoutingStrategy string

const (
	RoutingRoundRobin  RoutingStrategy = "round_robin"
	RoutingLeastLoaded RoutingStrategy = "least_loaded"
	RoutingTerritory   RoutingStrategy = "territory"
)

// IsValid reports whether the strategy is known
func (s RoutingStrategy) IsValid() bool {
	switch s {
	case RoutingRoundRobin, RoutingLeastLoaded, RoutingTerritory:
		return true
	}
	return false
}

// ErrNoEligibleRep is returned when every rep is inactive or at capacity
var ErrNoEligibleRep = shared.NewDomainError("NO_ELIGIBLE_REP", "No sales rep is available to take this lead")

// RepLoad is a routing candidate together with its current workload
type RepLoad struct {
	RepID          uuid.UUID
	Name           string
	OpenLeads      int
	MaxOpenLeads   int // 0 means unlimited
	LastAssignedAt *time.Time
	Active         bool
}

// HasCapacity reports whether the rep can take another lead
func (r RepLoad) HasCapacity() bool {
	return r.MaxOpenLeads == 0 || r.OpenLeads < r.MaxOpenLeads
}

func (r RepLoad) eligible() bool {
	return r.Active && r.HasCapacity()
}

// RoutingDecision explains who got the lead and why
type RoutingDecision struct {
	RepID       uuid.UUID
	TerritoryID *uuid.UUID
	Strategy    RoutingStrategy
	Reason      string
}

// Routing reasons
const (
	ReasonRoundRobin          = "round_robin"
	ReasonLeastLoaded         = "least_loaded"
	ReasonTerritoryMatch      = "territory_match"
	ReasonNoTerritoryMatch    = "no_territory_match"
	ReasonTerritoryAtCapacity = "territory_reps_unavailable"
)

// LeadRouter assigns leads to sales reps
type LeadRouter struct {
	matcher *TerritoryMatcher
}

// NewLeadRouter creates a router
func NewLeadRouter() *LeadRouter {
	return &LeadRouter{matcher: NewTerritoryMatcher()}
}

// Route picks a rep for the contact.
// The territory strategy uses only the best matching territory. When none
// matches or its reps are all ineligible, the least loaded rep overall wins.
func (r *LeadRouter) Route(profile ContactProfile, strategy RoutingStrategy, reps []RepLoad, territories []Territory) (*RoutingDecision, error) {
	if !strategy.IsValid() {
		return nil, shared.NewDomainError("INVALID_STRATEGY", "Invalid routing strategy")
	}
	eligible := filterEligible(reps)

	switch strategy {
	case RoutingRoundRobin:
		rep, ok := pickRoundRobin(eligible)
		if !ok {
			return nil, ErrNoEligibleRep
		}
		return &RoutingDecision{RepID: rep.RepID, Strategy: strategy, Reason: ReasonRoundRobin}, nil

	case RoutingLeastLoaded:
		rep, ok := pickLeastLoaded(eligible)
		if !ok {
			return nil, ErrNoEligibleRep
		}
		return &RoutingDecision{RepID: rep.RepID, Strategy: strategy, Reason: ReasonLeastLoaded}, nil
	}

	reason := ReasonNoTerritoryMatch
	if t := r.matcher.Best(profile, territories); t != nil {
		inTerritory := make([]RepLoad, 0, len(t.RepIDs))
		for _, rep := range eligible {
			if t.HasRep(rep.RepID) {
				inTerritory = append(inTerritory, rep)
			}
		}
		if rep, ok := pickLeastLoaded(inTerritory); ok {
			territoryID := t.ID
			return &RoutingDecision{
				RepID:       rep.RepID,
				TerritoryID: &territoryID,
				Strategy:    strategy,
				Reason:      ReasonTerritoryMatch,
			}, nil
		}
		reason = ReasonTerritoryAtCapacity
	}

	rep, ok := pickLeastLoaded(eligible)
	if !ok {
		return nil, ErrNoEligibleRep
	}
	return &RoutingDecision{RepID: rep.RepID, Strategy: strategy, Reason: reason}, nil
}

func filterEligible(reps []RepLoad) []RepLoad {
	out := make([]RepLoad, 0, len(reps))
	for _, rep := range reps {
		if rep.eligible() {
			out = append(out, rep)
		}
	}
	return out
}

// pickRoundRobin chooses the rep who has waited longest since their last lead.
// Reps never assigned go first.
func pickRoundRobin(reps []RepLoad) (RepLoad, bool) {
	if len(reps) == 0 {
		return RepLoad{}, false
	}
	return slices.MinFunc(reps, func(a, b RepLoad) int {
		if c := compareLastAssigned(a, b); c != 0 {
			return c
		}
		return bytes.Compare(a.RepID[:], b.RepID[:])
	}), true
}

func pickLeastLoaded(reps []RepLoad) (RepLoad, bool) {
	if len(reps) == 0 {
		return RepLoad{}, false
	}
	return slices.MinFunc(reps, func(a, b RepLoad) int {
		if c := cmp.Compare(a.OpenLeads, b.OpenLeads); c != 0 {
			return c
		}
		if c := compareLastAssigned(a, b); c != 0 {
			return c
		}
		return bytes.Compare(a.RepID[:], b.RepID[:])
	}), true
}

func compareLastAssigned(a, b RepLoad) int {
	switch {
	case a.LastAssignedAt == nil && b.LastAssignedAt == nil:
		return 0
	case a.LastAssignedAt == nil:
		return -1
	case b.LastAssignedAt == nil:
		return 1
	default:
		return a.LastAssignedAt.Compare(*b.LastAssignedAt)
	}
}
