// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package lifecycle_test

import (
	"testing"

	"github.com/coatyio/reconplan/lifecycle"
	"github.com/stretchr/testify/require"
)

func offOnType() *lifecycle.ComponentType {
	return &lifecycle.ComponentType{
		Name:    "switch",
		Places:  []string{"off", "on"},
		Initial: "off",
		Behaviors: []lifecycle.Behavior{
			{Name: "deploy", Transitions: []lifecycle.Transition{{Src: "off", Dst: "on", Cost: 1}}},
		},
	}
}

func TestBuild_SimpleChain(t *testing.T) {
	a, err := lifecycle.Build(offOnType())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"off", "on"}, a.States)

	dst, ok := a.Delta("off", "deploy")
	require.True(t, ok)
	require.Equal(t, "on", dst)
	require.EqualValues(t, 1, a.Cost("off", "deploy"))

	// skip is a zero-cost self-loop on every state.
	dst, ok = a.Delta("on", lifecycle.Skip)
	require.True(t, ok)
	require.Equal(t, "on", dst)
	require.EqualValues(t, 0, a.Cost("on", lifecycle.Skip))

	// undefined transitions report absent.
	_, ok = a.Delta("on", "deploy")
	require.False(t, ok)
}

func TestBuild_ChainCollapsesIntermediatePlaces(t *testing.T) {
	// idle -> starting -> running is a deterministic chain all labelled
	// "start"; idle and running are pivots (running has an outgoing label,
	// "stop", that never appears incoming), starting is absorbed.
	typ := &lifecycle.ComponentType{
		Name:    "service",
		Places:  []string{"idle", "starting", "running"},
		Initial: "idle",
		Behaviors: []lifecycle.Behavior{
			{Name: "start", Transitions: []lifecycle.Transition{
				{Src: "idle", Dst: "starting", Cost: 2},
				{Src: "starting", Dst: "running", Cost: 3},
			}},
			{Name: "stop", Transitions: []lifecycle.Transition{
				{Src: "running", Dst: "idle", Cost: 1},
			}},
		},
	}
	a, err := lifecycle.Build(typ)
	require.NoError(t, err)
	require.NotContains(t, a.States, "starting")

	dst, ok := a.Delta("idle", "start")
	require.True(t, ok)
	require.Equal(t, "running", dst)
	require.EqualValues(t, 5, a.Cost("idle", "start")) // 2 + 3 accumulated along the chain
}

func TestBuild_RejectsMissingInitialPlace(t *testing.T) {
	typ := &lifecycle.ComponentType{Name: "broken", Places: []string{"a"}}
	_, err := lifecycle.Build(typ)
	require.Error(t, err)
}

func TestBuild_RejectsUnknownTransitionPlace(t *testing.T) {
	typ := &lifecycle.ComponentType{
		Name:    "broken",
		Places:  []string{"a"},
		Initial: "a",
		Behaviors: []lifecycle.Behavior{
			{Name: "go", Transitions: []lifecycle.Transition{{Src: "a", Dst: "nope"}}},
		},
	}
	_, err := lifecycle.Build(typ)
	require.Error(t, err)
}
