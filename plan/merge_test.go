// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package plan_test

import (
	"testing"

	"github.com/coatyio/reconplan/errs"
	"github.com/coatyio/reconplan/plan"
	"github.com/stretchr/testify/require"
)

// TestMergeScenarioS2 mirrors spec scenario S2: prov's plan pushes deploy,
// user's plan waits on it before pushing start.
func TestMergeScenarioS2(t *testing.T) {
	provPlan := plan.Plan{Instance: "prov", Instructions: []plan.Instruction{
		plan.NewPushB("prov", "deploy_to_on"),
	}}
	userPlan := plan.Plan{Instance: "user", Instructions: []plan.Instruction{
		plan.NewWait("prov", "deploy_to_on"),
		plan.NewPushB("user", "start"),
	}}

	merged, err := plan.Merge([]plan.Plan{provPlan, userPlan})
	require.NoError(t, err)

	pos := make(map[string]int, len(merged))
	for i, instr := range merged {
		pos[instr.String()] = i
	}
	require.Less(t, pos[plan.NewPushB("prov", "deploy_to_on").String()], pos[plan.NewWait("prov", "deploy_to_on").String()])
	require.Less(t, pos[plan.NewWait("prov", "deploy_to_on").String()], pos[plan.NewPushB("user", "start").String()])
}

// TestMergeScenarioS6 mirrors spec scenario S6: two plans each wait on the
// other's eventual PushB in crossed order, forming a cycle.
func TestMergeScenarioS6(t *testing.T) {
	planA := plan.Plan{Instance: "a", Instructions: []plan.Instruction{
		plan.NewWait("b", "bb"),
		plan.NewPushB("a", "ba"),
	}}
	planB := plan.Plan{Instance: "b", Instructions: []plan.Instruction{
		plan.NewWait("a", "ba"),
		plan.NewPushB("b", "bb"),
	}}

	_, err := plan.Merge([]plan.Plan{planA, planB})
	require.Error(t, err)
	require.IsType(t, &errs.CycleInMerge{}, err)
}
