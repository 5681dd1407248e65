package entitlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heartlinkapp/heartlink/internal/entitlement"
)

func TestPlanRanks(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, entitlement.PlanBasic.Rank())
	assert.Equal(t, 2, entitlement.PlanStandard.Rank())
	assert.Equal(t, 3, entitlement.PlanPremium.Rank())
	assert.Equal(t, 0, entitlement.Plan("gold").Rank())
	assert.Equal(t, 0, entitlement.Plan("").Rank())
}

func TestPlanAtLeast(t *testing.T) {
	t.Parallel()
	cases := []struct {
		held, min entitlement.Plan
		want      bool
	}{
		{entitlement.PlanBasic, entitlement.PlanBasic, true},
		{entitlement.PlanBasic, entitlement.PlanStandard, false},
		{entitlement.PlanBasic, entitlement.PlanPremium, false},
		{entitlement.PlanStandard, entitlement.PlanBasic, true},
		{entitlement.PlanStandard, entitlement.PlanStandard, true},
		{entitlement.PlanStandard, entitlement.PlanPremium, false},
		{entitlement.PlanPremium, entitlement.PlanBasic, true},
		{entitlement.PlanPremium, entitlement.PlanStandard, true},
		{entitlement.PlanPremium, entitlement.PlanPremium, true},
		{entitlement.Plan("gold"), entitlement.PlanBasic, false},
		{entitlement.Plan(""), entitlement.PlanBasic, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.held.AtLeast(tc.min), "%s at least %s", tc.held, tc.min)
	}
}

func TestParsePlan(t *testing.T) {
	t.Parallel()
	assert.Equal(t, entitlement.PlanPremium, entitlement.ParsePlan("  Premium "))
	assert.Equal(t, entitlement.PlanBasic, entitlement.ParsePlan("basic"))
	assert.Equal(t, entitlement.Plan(""), entitlement.ParsePlan("gold"))
	assert.Equal(t, entitlement.Plan(""), entitlement.ParsePlan(""))
	assert.False(t, entitlement.Plan("gold").Known())
	assert.True(t, entitlement.PlanStandard.Known())
}
