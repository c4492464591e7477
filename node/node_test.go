// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package node_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coatyio/reconplan/assembly"
	"github.com/coatyio/reconplan/goal"
	"github.com/coatyio/reconplan/lifecycle"
	"github.com/coatyio/reconplan/messaging"
	"github.com/coatyio/reconplan/node"
	"github.com/coatyio/reconplan/plan"
	"github.com/coatyio/reconplan/solver"
	"github.com/stretchr/testify/require"
)

func provType() *lifecycle.ComponentType {
	return &lifecycle.ComponentType{
		Name:    "provider",
		Places:  []string{"on", "off"},
		Initial: "on",
		Behaviors: []lifecycle.Behavior{
			{Name: "disable", Transitions: []lifecycle.Transition{{Src: "on", Dst: "off", Cost: 1}}},
			{Name: "reenable", Transitions: []lifecycle.Transition{{Src: "off", Dst: "on", Cost: 1}}},
		},
		Ports: []lifecycle.Port{
			{Name: "svc", Direction: lifecycle.Provide, Binding: map[string]struct{}{"on": {}}},
		},
	}
}

func userType() *lifecycle.ComponentType {
	return &lifecycle.ComponentType{
		Name:    "consumer",
		Places:  []string{"idle", "running"},
		Initial: "idle",
		Behaviors: []lifecycle.Behavior{
			{Name: "start", Transitions: []lifecycle.Transition{{Src: "idle", Dst: "running", Cost: 1}}},
		},
		Ports: []lifecycle.Port{
			{Name: "svc", Direction: lifecycle.Use, Binding: map[string]struct{}{"running": {}}},
		},
	}
}

// TestRunScenarioS3 mirrors spec scenario S3: prov (already at "on") must
// execute a behavior that temporarily disables its provide-port, forcing
// it to emit a PortConstraint(svc,disabled,until=reenable@prov) to user;
// user's final plan must contain Wait(prov,reenable) before re-using svc.
func TestRunScenarioS3(t *testing.T) {
	asm := assembly.New()
	provInst := assembly.NewInstance("prov", provType(), "on")
	userInst := assembly.NewInstance("user", userType(), "idle")
	asm.AddInstance(provInst)
	asm.AddInstance(userInst)
	require.NoError(t, asm.Connect("prov", "svc", "user", "svc"))

	provAuto, err := lifecycle.Build(provType())
	require.NoError(t, err)
	userAuto, err := lifecycle.Build(userType())
	require.NoError(t, err)

	provModel := solver.NewModel("prov", provType(), provAuto, "on")
	provModel.AddGoal(goal.BehaviorGoal("disable", false))
	provModel.AddGoal(goal.StateGoal("on", true))

	userModel := solver.NewModel("user", userType(), userAuto, "idle")
	userModel.AddGoal(goal.StateGoal("running", true))

	reg := messaging.NewAckRegistry()
	mb := messaging.NewMailboxMessaging(reg)

	provNode := node.New(provInst, provModel, mb, true)
	userNode := node.New(userInst, userModel, mb, true)

	goalBearing := []string{"prov", "user"}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	var provPlan, userPlan *plan.Plan
	var provErr, userErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		provPlan, provErr = provNode.Run(ctx, goalBearing, time.Millisecond)
	}()
	go func() {
		defer wg.Done()
		userPlan, userErr = userNode.Run(ctx, goalBearing, time.Millisecond)
	}()
	wg.Wait()

	require.NoError(t, provErr)
	require.NoError(t, userErr)
	require.NotNil(t, provPlan)
	require.NotNil(t, userPlan)

	require.Equal(t, []plan.Instruction{
		plan.NewPushB("prov", "disable"),
		plan.NewPushB("prov", "reenable"),
	}, provPlan.Instructions)

	require.Equal(t, []plan.Instruction{
		plan.NewWait("prov", "reenable"),
		plan.NewPushB("user", "start"),
	}, userPlan.Instructions)
}
