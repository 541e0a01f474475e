package domain

import "strings"

// Tenant setting keys read by the policy resolver and the pool reclaimer.
const (
	SettingDuplicateStrategy = "LEAD_DUPLICATE_STRATEGY"
	SettingAutoAssignRule    = "LEAD_AUTO_ASSIGN_RULE"
	SettingReclaimDays       = "LEAD_RECLAIM_DAYS"
)

// DedupStrategy decides what happens when an active lead with the same phone
// already exists in the tenant.
type DedupStrategy int

const (
	// DedupNone always inserts a new lead row.
	DedupNone DedupStrategy = iota
	// DedupAutoLink returns the existing active lead instead of inserting.
	DedupAutoLink
)

func (d DedupStrategy) String() string {
	switch d {
	case DedupAutoLink:
		return "AUTO_LINK"
	default:
		return "NONE"
	}
}

// ParseDedupStrategy maps a setting value to a strategy. Empty maps to
// DedupNone; ok is false for values that are not recognised.
func ParseDedupStrategy(raw string) (DedupStrategy, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "NONE":
		return DedupNone, true
	case "AUTO_LINK":
		return DedupAutoLink, true
	default:
		return DedupNone, false
	}
}

// AssignRule decides how a newly created lead gets an owner.
type AssignRule int

const (
	// AssignNone leaves new leads in the pool.
	AssignNone AssignRule = iota
	// AssignRoundRobin rotates through eligible sales users.
	AssignRoundRobin
)

func (a AssignRule) String() string {
	switch a {
	case AssignRoundRobin:
		return "ROUND_ROBIN"
	default:
		return "NONE"
	}
}

// ParseAssignRule maps a setting value to a rule. Empty maps to AssignNone;
// ok is false for values that are not recognised.
func ParseAssignRule(raw string) (AssignRule, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "NONE":
		return AssignNone, true
	case "ROUND_ROBIN":
		return AssignRoundRobin, true
	default:
		return AssignNone, false
	}
}

// Policy is the per-operation snapshot of a tenant's distribution settings.
type Policy struct {
	Dedup  DedupStrategy
	Assign AssignRule
}
