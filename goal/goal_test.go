// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package goal_test

import (
	"testing"

	"github.com/coatyio/reconplan/goal"
	"github.com/coatyio/reconplan/lifecycle"
	"github.com/stretchr/testify/require"
)

func switchType() *lifecycle.ComponentType {
	return &lifecycle.ComponentType{
		Name:    "switch",
		Places:  []string{"off", "on"},
		Initial: "off",
		Behaviors: []lifecycle.Behavior{
			{Name: "deploy", Transitions: []lifecycle.Transition{{Src: "off", Dst: "on", Cost: 1}}},
		},
		Ports: []lifecycle.Port{
			{Name: "svc", Direction: lifecycle.Provide, Binding: map[string]struct{}{"on": {}}},
		},
	}
}

func TestValidateAcceptsConsistentGoals(t *testing.T) {
	goals := []goal.Goal{
		goal.PortGoal("svc", true, true),
		goal.StateGoal("on", true),
	}
	require.NoError(t, goal.Validate("p", switchType(), goals))
}

// Contradictory final PortGoals are NOT rejected by Validate: scenario S5
// (see solver package tests) expects InfeasibleConstraint from the solver
// for exactly this case, not InvalidGoal here.
func TestValidateAcceptsContradictoryPortGoals(t *testing.T) {
	goals := []goal.Goal{
		goal.PortGoal("svc", true, true),
		goal.PortGoal("svc", false, true),
	}
	require.NoError(t, goal.Validate("p", switchType(), goals))
}

func TestValidateRejectsContradictoryStateGoals(t *testing.T) {
	goals := []goal.Goal{
		goal.StateGoal("on", true),
		goal.StateGoal("off", true),
	}
	require.Error(t, goal.Validate("p", switchType(), goals))
}

func TestValidateRejectsUndeclaredBehavior(t *testing.T) {
	goals := []goal.Goal{goal.BehaviorGoal("nonexistent", false)}
	require.Error(t, goal.Validate("p", switchType(), goals))
}

func TestValidateRejectsUndeclaredPort(t *testing.T) {
	goals := []goal.Goal{goal.PortGoal("nonexistent", true, true)}
	require.Error(t, goal.Validate("p", switchType(), goals))
}

func TestValidateRejectsUndeclaredState(t *testing.T) {
	goals := []goal.Goal{goal.StateGoal("nonexistent", true)}
	require.Error(t, goal.Validate("p", switchType(), goals))
}

func TestConstraintPermanent(t *testing.T) {
	c := goal.Constraint{SourceInstance: "a", LocalPort: "svc", RequiredStatus: true}
	require.True(t, c.Permanent())
	c.UntilBehavior = "update"
	require.False(t, c.Permanent())
}
