// Package entitlement gates feature access by subscription plan tier.
package entitlement

import "strings"

// Plan is a subscription tier. Tiers form a strict total order:
// basic < standard < premium. Unrecognized values rank below basic.
type Plan string

// Known plans, lowest tier first.
const (
	PlanBasic    Plan = "basic"
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

var planRanks = map[Plan]int{
	PlanBasic:    1,
	PlanStandard: 2,
	PlanPremium:  3,
}

// Rank returns the numeric rank of the plan; unknown plans rank 0.
func (p Plan) Rank() int {
	return planRanks[p]
}

// AtLeast reports whether p ranks at or above min.
func (p Plan) AtLeast(min Plan) bool {
	return p.Rank() >= min.Rank()
}

// Known reports whether p is a recognized plan.
func (p Plan) Known() bool {
	return p.Rank() > 0
}

// ParsePlan normalizes a raw plan string. The zero Plan is returned for
// unrecognized input; callers decide whether that is an error.
func ParsePlan(raw string) Plan {
	p := Plan(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Known() {
		return ""
	}
	return p
}
