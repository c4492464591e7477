// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package solver_test

import (
	"testing"

	"github.com/coatyio/reconplan/goal"
	"github.com/coatyio/reconplan/lifecycle"
	"github.com/coatyio/reconplan/solver"
	"github.com/stretchr/testify/require"
)

func offOnType() *lifecycle.ComponentType {
	return &lifecycle.ComponentType{
		Name:    "p",
		Places:  []string{"off", "on"},
		Initial: "off",
		Behaviors: []lifecycle.Behavior{
			{Name: "deploy", Transitions: []lifecycle.Transition{{Src: "off", Dst: "on", Cost: 1}}},
		},
	}
}

// TestSolveScenarioS1 mirrors spec scenario S1: a single instance with goal
// StateGoal(on,final) yields the single-action plan PushB(p,deploy).
func TestSolveScenarioS1(t *testing.T) {
	typ := offOnType()
	auto, err := lifecycle.Build(typ)
	require.NoError(t, err)

	m := solver.NewModel("p", typ, auto, "off")
	m.AddGoal(goal.StateGoal("on", true))

	actions, err := m.FinalPlan()
	require.NoError(t, err)
	require.Len(t, actions, 1)
	require.Equal(t, solver.BehaviorAction, actions[0].Kind)
	require.Equal(t, "deploy", actions[0].Behavior)
}

// TestSolveScenarioS5 mirrors spec scenario S5: PortGoal(pi,enabled,final)
// and PortGoal(pi,disabled,final) on one instance is unsatisfiable.
func TestSolveScenarioS5(t *testing.T) {
	typ := &lifecycle.ComponentType{
		Name:    "p",
		Places:  []string{"s"},
		Initial: "s",
		Ports: []lifecycle.Port{
			{Name: "pi", Direction: lifecycle.Provide, Binding: map[string]struct{}{"s": {}}},
		},
	}
	auto, err := lifecycle.Build(typ)
	require.NoError(t, err)

	m := solver.NewModel("p", typ, auto, "s")
	m.AddGoal(goal.PortGoal("pi", true, true))
	m.AddGoal(goal.PortGoal("pi", false, true))

	_, err = m.FinalPlan()
	require.Error(t, err)
}

// TestSolveWaitConstraint mirrors the wait-input half of scenario S3: a
// received until-constraint becomes a Wait action once its required port
// status holds.
func TestSolveWaitConstraint(t *testing.T) {
	typ := &lifecycle.ComponentType{
		Name:    "user",
		Places:  []string{"idle", "running"},
		Initial: "idle",
		Behaviors: []lifecycle.Behavior{
			{Name: "start", Transitions: []lifecycle.Transition{{Src: "idle", Dst: "running", Cost: 1}}},
		},
		Ports: []lifecycle.Port{
			{Name: "svc", Direction: lifecycle.Use, Binding: map[string]struct{}{"running": {}}},
		},
	}
	auto, err := lifecycle.Build(typ)
	require.NoError(t, err)

	m := solver.NewModel("user", typ, auto, "running")
	m.AddConstraint(goal.Constraint{
		SourceInstance: "prov",
		LocalPort:      "svc",
		RequiredStatus: true,
		UntilBehavior:  "update",
	})

	actions, err := m.FinalPlan()
	require.NoError(t, err)
	require.Len(t, actions, 1)
	require.Equal(t, solver.WaitAction, actions[0].Kind)
	require.Equal(t, "prov", actions[0].WaitSource)
	require.Equal(t, "update", actions[0].Behavior)
}
