// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package driver_test

import (
	"context"
	"testing"
	"time"

	"github.com/coatyio/reconplan/assembly"
	"github.com/coatyio/reconplan/driver"
	"github.com/coatyio/reconplan/goal"
	"github.com/coatyio/reconplan/lifecycle"
	"github.com/coatyio/reconplan/messaging"
	"github.com/coatyio/reconplan/plan"
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
	}
}

func oneInstanceAssembly() *assembly.Assembly {
	a := assembly.New()
	a.AddInstance(assembly.NewInstance("p", switchType(), "off"))
	return a
}

// TestResolveScenarioS1 mirrors spec scenario S1 end-to-end through the
// driver: no structural change, one instance, one final-state goal.
func TestResolveScenarioS1(t *testing.T) {
	in := oneInstanceAssembly()
	out := oneInstanceAssembly()

	goals := map[string][]goal.Goal{
		"p": {goal.StateGoal("on", true)},
	}

	reg := messaging.NewAckRegistry()
	mb := messaging.NewMailboxMessaging(reg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	instrs, err := driver.Resolve(ctx, in, out, goals, mb, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, []plan.Instruction{plan.NewPushB("p", "deploy")}, instrs)
}

// TestResolveStitchesStructuralDiffAroundBehaviorPlan mirrors §2's "Control
// flow": added/connected instructions lead, deleted/disconnected trail, the
// merged behavior plan sits between them.
func TestResolveStitchesStructuralDiffAroundBehaviorPlan(t *testing.T) {
	in := assembly.New()
	in.AddInstance(assembly.NewInstance("p", switchType(), "off"))
	in.AddInstance(assembly.NewInstance("stale", switchType(), "off"))

	out := assembly.New()
	out.AddInstance(assembly.NewInstance("p", switchType(), "off"))
	out.AddInstance(assembly.NewInstance("fresh", switchType(), "off"))

	goals := map[string][]goal.Goal{
		"p": {goal.StateGoal("on", true)},
	}

	reg := messaging.NewAckRegistry()
	mb := messaging.NewMailboxMessaging(reg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	instrs, err := driver.Resolve(ctx, in, out, goals, mb, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, []plan.Instruction{
		plan.NewAdd("fresh", "switch"),
		plan.NewPushB("p", "deploy"),
		plan.NewDel("stale"),
	}, instrs)
}
