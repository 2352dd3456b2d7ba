package crm

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTerritory(t *testing.T, name string, criteria TerritoryCriteria, priority int) Territory {
	t.Helper()
	territory, err := NewTerritory(uuid.New(), name, criteria, priority)
	require.NoError(t, err)
	return *territory
}

func TestTerritory_Matches(t *testing.T) {
	south := newTerritory(t, "South", TerritoryCriteria{
		Countries: []string{"India"},
		States:    []string{"Karnataka", "Tamil Nadu"},
	}, 10)

	tests := []struct {
		name    string
		profile ContactProfile
		want    bool
	}{
		{"exact match", ContactProfile{Country: "India", State: "Karnataka"}, true},
		{"case and spacing ignored", ContactProfile{Country: " india ", State: "tamil   nadu"}, true},
		{"state outside list", ContactProfile{Country: "India", State: "Kerala"}, false},
		{"missing state fails constrained dimension", ContactProfile{Country: "India"}, false},
		{"unconstrained dimension ignored", ContactProfile{Country: "India", State: "Karnataka", Industry: "Retail"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, south.Matches(tt.profile))
		})
	}
}

func TestTerritory_MatchesAccentInsensitive(t *testing.T) {
	territory := newTerritory(t, "Quebec", TerritoryCriteria{Cities: []string{"Montréal"}}, 0)
	assert.True(t, territory.Matches(ContactProfile{City: "MONTREAL"}))
}

func TestTerritory_PostalPrefixes(t *testing.T) {
	blr := newTerritory(t, "Bengaluru", TerritoryCriteria{PostalPrefixes: []string{"560", " 561 "}}, 0)

	assert.True(t, blr.Matches(ContactProfile{PostalCode: "560 001"}))
	assert.True(t, blr.Matches(ContactProfile{PostalCode: "561203"}))
	assert.False(t, blr.Matches(ContactProfile{PostalCode: "400001"}))
	assert.False(t, blr.Matches(ContactProfile{}))
	assert.Equal(t, []string{"560", "561"}, blr.Criteria.PostalPrefixes)
}

func TestTerritory_EmptyCriteriaIsCatchAll(t *testing.T) {
	all := newTerritory(t, "Everywhere", TerritoryCriteria{}, 0)
	assert.True(t, all.Matches(ContactProfile{}))
	assert.Equal(t, 0, all.Criteria.Specificity())

	all.Deactivate()
	assert.False(t, all.Matches(ContactProfile{}))
}

func TestTerritory_Validation(t *testing.T) {
	_, err := NewTerritory(uuid.New(), " ", TerritoryCriteria{}, 0)
	assert.Error(t, err)
	_, err = NewTerritory(uuid.New(), "North", TerritoryCriteria{}, -1)
	assert.Error(t, err)
}

func TestTerritory_CriteriaDeduplicated(t *testing.T) {
	territory := newTerritory(t, "West", TerritoryCriteria{States: []string{"Goa", "goa", " ", "Gujarat"}}, 0)
	assert.Equal(t, []string{"Goa", "Gujarat"}, territory.Criteria.States)
}

func TestTerritory_SetReps(t *testing.T) {
	territory := newTerritory(t, "West", TerritoryCriteria{}, 0)
	rep := uuid.New()
	territory.SetReps([]uuid.UUID{rep, rep, uuid.Nil})
	assert.Equal(t, []uuid.UUID{rep}, territory.RepIDs)
	assert.True(t, territory.HasRep(rep))
}

func TestTerritoryMatcher_Ordering(t *testing.T) {
	catchAll := newTerritory(t, "Catch All", TerritoryCriteria{}, 0)
	india := newTerritory(t, "India", TerritoryCriteria{Countries: []string{"India"}}, 5)
	indiaRetail := newTerritory(t, "India Retail", TerritoryCriteria{Countries: []string{"India"}, Industries: []string{"Retail"}}, 5)
	vip := newTerritory(t, "VIP", TerritoryCriteria{Industries: []string{"Retail"}}, 50)
	us := newTerritory(t, "US", TerritoryCriteria{Countries: []string{"United States"}}, 100)

	matcher := NewTerritoryMatcher()
	profile := ContactProfile{Country: "India", Industry: "retail"}
	matched := matcher.Match(profile, []Territory{catchAll, india, indiaRetail, vip, us})

	names := make([]string, len(matched))
	for i, m := range matched {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"VIP", "India Retail", "India", "Catch All"}, names)

	best := matcher.Best(profile, []Territory{catchAll, india})
	require.NotNil(t, best)
	assert.Equal(t, "India", best.Name)

	assert.Nil(t, matcher.Best(profile, []Territory{us}))
}
