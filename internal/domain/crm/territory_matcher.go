package crm

import (
	"cmp"
	"slices"
)

// TerritoryMatcher picks the territories a contact belongs to
type TerritoryMatcher struct{}

// NewTerritoryMatcher creates a matcher
func NewTerritoryMatcher() *TerritoryMatcher {
	return &TerritoryMatcher{}
}

// Match returns every matching territory, highest priority first.
// Ties go to the more specific territory, then to the name.
func (m *TerritoryMatcher) Match(profile ContactProfile, territories []Territory) []Territory {
	matched := make([]Territory, 0)
	for _, t := range territories {
		if t.Matches(profile) {
			matched = append(matched, t)
		}
	}
	slices.SortStableFunc(matched, func(a, b Territory) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Criteria.Specificity(), a.Criteria.Specificity()); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return matched
}

// Best returns the winning territory, or nil when none match
func (m *TerritoryMatcher) Best(profile ContactProfile, territories []Territory) *Territory {
	matched := m.Match(profile, territories)
	if len(matched) == 0 {
		return nil
	}
	return &matched[0]
}
