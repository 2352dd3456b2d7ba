package crm

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
)

// TerritoryCriteria describes which contacts fall into a territory.
// An empty list is a wildcard for that dimension.
type TerritoryCriteria struct {
	Countries      []string `json:"countries,omitempty"`
	States         []string `json:"states,omitempty"`
	Cities         []string `json:"cities,omitempty"`
	PostalPrefixes []string `json:"postal_prefixes,omitempty"`
	Industries     []string `json:"industries,omitempty"`
}

// Specificity counts the constrained dimensions
func (c TerritoryCriteria) Specificity() int {
	n := 0
	for _, dim := range [][]string{c.Countries, c.States, c.Cities, c.PostalPrefixes, c.Industries} {
		if len(dim) > 0 {
			n++
		}
	}
	return n
}

func (c TerritoryCriteria) normalized() TerritoryCriteria {
	prefixes := make([]string, 0, len(c.PostalPrefixes))
	for _, p := range c.PostalPrefixes {
		p = strings.ReplaceAll(strings.TrimSpace(p), " ", "")
		if p != "" && !slices.Contains(prefixes, p) {
			prefixes = append(prefixes, p)
		}
	}
	return TerritoryCriteria{
		Countries:      dedupe(c.Countries),
		States:         dedupe(c.States),
		Cities:         dedupe(c.Cities),
		PostalPrefixes: prefixes,
		Industries:     dedupe(c.Industries),
	}
}

// Territory groups contacts by geography or industry and names the reps who work them
type Territory struct {
	shared.TenantAggregateRoot
	Name        string
	Description string
	Criteria    TerritoryCriteria
	Priority    int
	RepIDs      []uuid.UUID
	Active      bool
}

// NewTerritory creates an active territory
func NewTerritory(tenantID uuid.UUID, name string, criteria TerritoryCriteria, priority int) (*Territory, error) {
	t := &Territory{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Active:              true,
		RepIDs:              []uuid.UUID{},
	}
	if err := t.Update(name, "", criteria, priority); err != nil {
		return nil, err
	}
	t.Version = 1
	return t, nil
}

// Update replaces the territory definition
func (t *Territory) Update(name, description string, criteria TerritoryCriteria, priority int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Territory name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Territory name cannot exceed 100 characters")
	}
	if priority < 0 || priority > 1000 {
		return shared.NewDomainError("INVALID_PRIORITY", "Priority must be between 0 and 1000")
	}
	t.Name = name
	t.Description = strings.TrimSpace(description)
	t.Criteria = criteria.normalized()
	t.Priority = priority
	t.MarkModified()
	return nil
}

// SetReps replaces the reps who work this territory
func (t *Territory) SetReps(repIDs []uuid.UUID) {
	reps := make([]uuid.UUID, 0, len(repIDs))
	for _, id := range repIDs {
		if id != uuid.Nil && !slices.Contains(reps, id) {
			reps = append(reps, id)
		}
	}
	t.RepIDs = reps
	t.MarkModified()
}

// HasRep reports whether a rep belongs to the territory
func (t *Territory) HasRep(repID uuid.UUID) bool {
	return slices.Contains(t.RepIDs, repID)
}

// Activate enables matching
func (t *Territory) Activate() {
	if t.Active {
		return
	}
	t.Active = true
	t.MarkModified()
}

// Deactivate disables matching
func (t *Territory) Deactivate() {
	if !t.Active {
		return
	}
	t.Active = false
	t.MarkModified()
}

// Matches reports whether the contact falls inside the territory.
// Comparison ignores case, accents and extra whitespace; postal codes match by prefix.
func (t *Territory) Matches(p ContactProfile) bool {
	if !t.Active {
		return false
	}
	c := t.Criteria
	if !matchesAny(c.Countries, p.Country) ||
		!matchesAny(c.States, p.State) ||
		!matchesAny(c.Cities, p.City) ||
		!matchesAny(c.Industries, p.Industry) {
		return false
	}
	if len(c.PostalPrefixes) > 0 {
		postal := strings.ToUpper(strings.ReplaceAll(p.PostalCode, " ", ""))
		if postal == "" {
			return false
		}
		matched := false
		for _, prefix := range c.PostalPrefixes {
			if strings.HasPrefix(postal, strings.ToUpper(prefix)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func matchesAny(allowed []string, value string) bool {
	if len(allowed) == 0 {
		return true
	}
	key := foldKey(value)
	if key == "" {
		return false
	}
	return slices.Contains(foldAll(allowed), key)
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		k := foldKey(v)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
