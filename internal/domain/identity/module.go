package identity

import (
	"slices"
	"strings"
)

// ModuleKey identifies a licensed feature area of the platform
type ModuleKey string

const (
	ModuleCRM         ModuleKey = "crm"
	ModuleHR          ModuleKey = "hr"
	ModuleFinance     ModuleKey = "finance"
	ModuleProjects    ModuleKey = "projects"
	ModuleKnowledge   ModuleKey = "knowledge"
	ModuleAIAssistant ModuleKey = "ai_assistant"
	ModuleDashboard   ModuleKey = "dashboard"
)

// AllModules lists every module in display order
var AllModules = []ModuleKey{
	ModuleCRM,
	ModuleFinance,
	ModuleProjects,
	ModuleHR,
	ModuleKnowledge,
	ModuleAIAssistant,
	ModuleDashboard,
}

// IsValid reports whether the key names a known module
func (m ModuleKey) IsValid() bool {
	return slices.Contains(AllModules, m)
}

// DefaultPlanModules returns the modules licensed by a plan out of the box.
func DefaultPlanModules(plan TenantPlan) ModuleSet {
	switch plan {
	case TenantPlanFree:
		return NewModuleSet(ModuleCRM, ModuleDashboard)
	case TenantPlanStarter:
		return NewModuleSet(ModuleCRM, ModuleDashboard, ModuleFinance, ModuleProjects)
	case TenantPlanProfessional:
		return NewModuleSet(ModuleCRM, ModuleDashboard, ModuleFinance, ModuleProjects, ModuleHR, ModuleKnowledge)
	case TenantPlanEnterprise:
		return NewModuleSet(AllModules...)
	default:
		return NewModuleSet()
	}
}

// ModuleSet is an ordered, de-duplicated list of modules
type ModuleSet []ModuleKey

// NewModuleSet builds a set, dropping unknown and duplicate keys
func NewModuleSet(keys ...ModuleKey) ModuleSet {
	set := make(ModuleSet, 0, len(keys))
	for _, k := range keys {
		if k.IsValid() && !slices.Contains(set, k) {
			set = append(set, k)
		}
	}
	slices.Sort(set)
	return set
}

// ParseModuleSet parses a comma separated module list
func ParseModuleSet(raw string) ModuleSet {
	if strings.TrimSpace(raw) == "" {
		return NewModuleSet()
	}
	parts := strings.Split(raw, ",")
	keys := make([]ModuleKey, 0, len(parts))
	for _, p := range parts {
		keys = append(keys, ModuleKey(strings.ToLower(strings.TrimSpace(p))))
	}
	return NewModuleSet(keys...)
}

// String renders the set as a comma separated list
func (s ModuleSet) String() string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

// Contains reports whether the set includes key
func (s ModuleSet) Contains(key ModuleKey) bool {
	return slices.Contains(s, key)
}

// With returns a new set including key
func (s ModuleSet) With(key ModuleKey) ModuleSet {
	return NewModuleSet(append(slices.Clone(s), key)...)
}

// Without returns a new set excluding key
func (s ModuleSet) Without(key ModuleKey) ModuleSet {
	out := make(ModuleSet, 0, len(s))
	for _, k := range s {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}
